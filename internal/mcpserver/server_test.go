package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/tomatyss/taskter/internal/tools"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes its input text back" }
func (echoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
}
func (echoTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &decoded); err != nil {
		return "", fmt.Errorf("echo: %w", err)
	}
	return decoded.Text, nil
}

type failTool struct{}

func (failTool) Name() string               { return "fail" }
func (failTool) Description() string        { return "always fails" }
func (failTool) Parameters() json.RawMessage { return nil }
func (failTool) Invoke(context.Context, json.RawMessage) (string, error) {
	return "", fmt.Errorf("deliberate failure")
}

func newTestRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(echoTool{})
	r.Register(failTool{})
	return r
}

// readOneFrame pulls a single Content-Length framed message back off
// the server's output buffer and unmarshals it into v.
func readOneFrame(t *testing.T, buf *bytes.Buffer, v any) {
	t.Helper()
	br := bufio.NewReader(buf)
	frame, err := readFrame(br)
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	// Hand back whatever br buffered past this frame so the next call
	// starts at the following message.
	rest, _ := br.Peek(br.Buffered())
	remaining := append(append([]byte(nil), rest...), buf.Bytes()...)
	buf.Reset()
	buf.Write(remaining)
	if err := json.Unmarshal(frame, v); err != nil {
		t.Fatalf("unmarshal frame: %v, frame=%s", err, frame)
	}
}

func contentLengthFrame(payload string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload)
}

func TestServeInitializeAndToolsList(t *testing.T) {
	in := strings.NewReader(
		contentLengthFrame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`) +
			contentLengthFrame(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`) +
			`{"jsonrpc":"2.0","id":3,"method":"shutdown"}` + "\n",
	)
	var out bytes.Buffer
	s := New(newTestRegistry(), in, &out, nil)

	if err := s.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var initResp response
	readOneFrame(t, &out, &initResp)
	if initResp.Error != nil {
		t.Fatalf("initialize returned error: %+v", initResp.Error)
	}
	var initResult initializeResult
	if err := json.Unmarshal(initResp.Result, &initResult); err != nil {
		t.Fatalf("unmarshal initialize result: %v", err)
	}
	if initResult.ProtocolVersion != ProtocolVersion {
		t.Fatalf("protocolVersion = %q, want %q", initResult.ProtocolVersion, ProtocolVersion)
	}

	var listResp response
	readOneFrame(t, &out, &listResp)
	var listResult listToolsResult
	if err := json.Unmarshal(listResp.Result, &listResult); err != nil {
		t.Fatalf("unmarshal tools/list result: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range listResult.Tools {
		names[tool.Name] = true
	}
	if !names["echo"] || !names["fail"] {
		t.Fatalf("tools/list missing registered tools: %+v", listResult.Tools)
	}
}

func TestServeToolsCallSuccessAndFailure(t *testing.T) {
	in := strings.NewReader(
		contentLengthFrame(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`) +
			contentLengthFrame(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"fail","arguments":{}}}`) +
			contentLengthFrame(`{"jsonrpc":"2.0","id":3,"method":"shutdown"}`),
	)
	var out bytes.Buffer
	s := New(newTestRegistry(), in, &out, nil)

	if err := s.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var okResp response
	readOneFrame(t, &out, &okResp)
	var okResult callToolResult
	if err := json.Unmarshal(okResp.Result, &okResult); err != nil {
		t.Fatalf("unmarshal echo result: %v", err)
	}
	if okResult.IsError || len(okResult.Content) != 1 || okResult.Content[0].Text != "hi" {
		t.Fatalf("echo result = %+v", okResult)
	}

	var failResp response
	readOneFrame(t, &out, &failResp)
	var failResult callToolResult
	if err := json.Unmarshal(failResp.Result, &failResult); err != nil {
		t.Fatalf("unmarshal fail result: %v", err)
	}
	if !failResult.IsError {
		t.Fatalf("expected fail tool call to set isError, got %+v", failResult)
	}
}

func TestServeUnknownMethodReturnsMethodNotFound(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"resources/list"}` + "\n")
	var out bytes.Buffer
	s := New(newTestRegistry(), in, &out, nil)

	// No shutdown in the stream; EOF after the one request ends Serve.
	if err := s.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp response
	readOneFrame(t, &out, &resp)
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("resp.Error = %+v, want ErrCodeMethodNotFound", resp.Error)
	}
}

func TestServeAcceptsLineDelimitedFallbackFraming(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer
	s := New(newTestRegistry(), in, &out, nil)

	if err := s.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp response
	readOneFrame(t, &out, &resp)
	if resp.Error != nil {
		t.Fatalf("ping returned error: %+v", resp.Error)
	}
}

func TestServeEOFWithNoFramesReturnsNil(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	s := New(newTestRegistry(), in, &out, nil)

	if err := s.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v, want nil on clean EOF", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on immediate EOF, got %q", out.String())
	}
}
