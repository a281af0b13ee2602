package providers

import (
	"encoding/json"
	"testing"

	"github.com/tomatyss/taskter/pkg/models"
)

// TestResponsesCorrelatesFunctionCallAndOutputByCallID walks a two-turn
// transcript through toResponsesItems exactly as the executor would build
// it: first turn is a tool call, second turn feeds the tool's output back.
// The resulting item list must carry matching call_id values on the
// function_call and function_call_output items so a stateless Responses
// API request replays the full tool-use turn correctly.
func TestResponsesCorrelatesFunctionCallAndOutputByCallID(t *testing.T) {
	p := NewOpenAIResponses()
	agent := &models.Agent{SystemPrompt: "You triage tasks.", Model: "gpt-4o"}

	history := p.BuildHistory(agent, "Check disk usage and report back.")
	call := models.ToolCall{ID: "call_abc123", Name: "run_bash", Input: json.RawMessage(`{"command":"df -h"}`)}
	history = p.AppendToolResult(history, call, "Filesystem  Use%\n/dev/sda1   42%", true)

	// A second tool call in the same transcript must not collide with the first.
	call2 := models.ToolCall{ID: "call_def456", Name: "run_bash", Input: json.RawMessage(`{"command":"uptime"}`)}
	history = p.AppendToolResult(history, call2, "up 3 days", true)

	items := toResponsesItems(history)

	var calls, outputs []responsesItem
	for _, item := range items {
		switch item.Type {
		case "function_call":
			calls = append(calls, item)
		case "function_call_output":
			outputs = append(outputs, item)
		}
	}

	if len(calls) != 2 || len(outputs) != 2 {
		t.Fatalf("got %d function_call and %d function_call_output items, want 2 and 2", len(calls), len(outputs))
	}
	if calls[0].CallID != "call_abc123" || outputs[0].CallID != "call_abc123" {
		t.Fatalf("first call/output call_id mismatch: %+v / %+v", calls[0], outputs[0])
	}
	if calls[1].CallID != "call_def456" || outputs[1].CallID != "call_def456" {
		t.Fatalf("second call/output call_id mismatch: %+v / %+v", calls[1], outputs[1])
	}
	if outputs[0].Output != "Filesystem  Use%\n/dev/sda1   42%" {
		t.Fatalf("first output content = %q", outputs[0].Output)
	}
}

func TestParseResponsesOutputPrefersFunctionCall(t *testing.T) {
	resp := responsesResponse{Output: []responsesItem{
		{Type: "message", Role: "assistant", Content: "thinking..."},
		{Type: "function_call", CallID: "call_1", Name: "web_search", Arguments: `{"query":"go modules"}`},
	}}
	action, err := parseResponsesOutput(resp)
	if err != nil {
		t.Fatalf("parseResponsesOutput() error = %v", err)
	}
	if action.Kind != ActionToolCall || action.CallID != "call_1" || action.Name != "web_search" {
		t.Fatalf("parseResponsesOutput() = %+v", action)
	}
}

func TestParseResponsesOutputText(t *testing.T) {
	resp := responsesResponse{Output: []responsesItem{
		{Type: "message", Role: "assistant", Content: "all done"},
	}}
	action, err := parseResponsesOutput(resp)
	if err != nil {
		t.Fatalf("parseResponsesOutput() error = %v", err)
	}
	if action.Kind != ActionText || action.Text != "all done" {
		t.Fatalf("parseResponsesOutput() = %+v", action)
	}
}

func TestParseResponsesOutputEmpty(t *testing.T) {
	if _, err := parseResponsesOutput(responsesResponse{}); err == nil {
		t.Fatalf("expected error for empty output")
	}
}
