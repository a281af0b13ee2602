package mcpserver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// openTrace honors TASKTER_MCP_TRACE{,_FILE,_STDERR}: when tracing is
// enabled, every frame in and out is mirrored to a file (default
// <tmpdir>/taskter_mcp_trace.log, overridable) or, if
// TASKTER_MCP_TRACE_STDERR=1, to stderr instead. It must never write to
// stdout, which carries the protocol itself. A nil, nil return means
// tracing is disabled.
func openTrace(getenv func(string) string) (io.Writer, io.Closer, error) {
	if getenv("TASKTER_MCP_TRACE") != "1" {
		return nil, nil, nil
	}

	if getenv("TASKTER_MCP_TRACE_STDERR") == "1" {
		return os.Stderr, nil, nil
	}

	path := getenv("TASKTER_MCP_TRACE_FILE")
	if path == "" {
		path = filepath.Join(os.TempDir(), "taskter_mcp_trace.log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("mcpserver: open trace file: %w", err)
	}
	return f, f, nil
}

func traceFrame(w io.Writer, direction string, payload []byte) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", direction, payload)
}
