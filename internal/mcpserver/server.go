package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/tomatyss/taskter/internal/tools"
)

// Server exposes a tool Registry to a single external client over
// stdio, one JSON-RPC frame at a time. It holds no board or agent
// state of its own: every tools/call dispatches straight into the same
// Registry an in-process agent would use.
type Server struct {
	Registry *tools.Registry
	Name     string
	Version  string
	Logger   *slog.Logger

	in     io.Reader
	out    io.Writer
	getenv func(string) string
}

// New returns a Server reading requests from in and writing responses
// to out (ordinarily os.Stdin and os.Stdout; tests substitute buffers).
func New(registry *tools.Registry, in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Registry: registry,
		Name:     "taskter",
		Version:  "dev",
		Logger:   logger,
		in:       in,
		out:      out,
		getenv:   os.Getenv,
	}
}

// Serve reads and dispatches requests until EOF on the input, a
// `shutdown` request, or ctx is cancelled. EOF and a clean shutdown
// both return nil; any framing error is returned to the caller.
func (s *Server) Serve(ctx context.Context) error {
	traceW, closer, err := openTrace(s.getenv)
	if err != nil {
		s.Logger.Warn("mcpserver: tracing disabled", "error", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	br := bufio.NewReader(s.in)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		frame, err := readFrame(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		traceFrame(traceW, "<-", frame)

		var req request
		if err := json.Unmarshal(frame, &req); err != nil {
			resp := errorResponse(nil, ErrCodeParseError, err.Error())
			if werr := s.writeResponse(resp, traceW); werr != nil {
				return werr
			}
			continue
		}

		resp := s.handle(ctx, req)
		if err := s.writeResponse(resp, traceW); err != nil {
			return err
		}

		if req.Method == "shutdown" {
			return nil
		}
	}
}

func (s *Server) writeResponse(resp response, traceW io.Writer) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	traceFrame(traceW, "->", payload)
	return writeFrame(s.out, payload)
}

func (s *Server) handle(ctx context.Context, req request) response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, struct{}{})
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "shutdown":
		return resultResponse(req.ID, struct{}{})
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(req request) response {
	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    capabilities{Tools: toolsCapability{ListChanged: false}},
		ServerInfo:      serverInfo{Name: s.Name, Version: s.Version},
	})
}

func (s *Server) handleToolsList(req request) response {
	registered := s.Registry.List()
	descriptors := make([]toolDescriptor, 0, len(registered))
	for _, t := range registered {
		params := t.Parameters()
		if len(params) == 0 {
			params = json.RawMessage(`{"type":"object"}`)
		}
		descriptors = append(descriptors, toolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: params,
		})
	}
	return resultResponse(req.ID, listToolsResult{Tools: descriptors})
}

func (s *Server) handleToolsCall(ctx context.Context, req request) response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, "invalid tools/call params: "+err.Error())
	}
	if params.Name == "" {
		return errorResponse(req.ID, ErrCodeInvalidParams, "tools/call requires a non-empty name")
	}

	result := s.Registry.Dispatch(ctx, params.Name, params.Arguments)
	if result.OK {
		return resultResponse(req.ID, callToolResult{
			Content: []contentBlock{{Type: "text", Text: result.Output}},
		})
	}
	return resultResponse(req.ID, callToolResult{
		Content: []contentBlock{{Type: "text", Text: result.Error}},
		IsError: true,
	})
}
