package mcpserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readFrame reads one JSON-RPC payload from br. It accepts the MCP
// standard `Content-Length: N\r\n\r\n<N bytes>` framing as well as a
// single line-delimited JSON object with no header, sniffing which one
// applies from the first non-blank line. Blank lines between messages
// are skipped rather than treated as empty frames.
func readFrame(br *bufio.Reader) ([]byte, error) {
	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		if trimmed == "" {
			if err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(trimmed, "Content-Length:") {
			lengthStr := strings.TrimSpace(strings.TrimPrefix(trimmed, "Content-Length:"))
			length, convErr := strconv.Atoi(lengthStr)
			if convErr != nil {
				return nil, fmt.Errorf("mcpserver: invalid Content-Length header %q: %w", lengthStr, convErr)
			}
			if err := consumeHeaderBlock(br); err != nil {
				return nil, err
			}
			body := make([]byte, length)
			if _, err := io.ReadFull(br, body); err != nil {
				return nil, err
			}
			return body, nil
		}

		// Fallback framing: the line itself is the JSON-RPC object.
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return []byte(trimmed), nil
	}
}

// consumeHeaderBlock reads and discards header lines (there is only
// ever Content-Length in this server's dialect) up through the blank
// line that terminates the header block.
func consumeHeaderBlock(br *bufio.Reader) error {
	for {
		line, err := br.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == "" {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// writeFrame writes payload using the MCP standard Content-Length
// framing, regardless of which framing the request arrived in: every
// real MCP client speaks this framing, and it is always valid to send
// even to a fallback-only script.
func writeFrame(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
