package providers

import "testing"

func TestParseOllamaResponseText(t *testing.T) {
	resp := ollamaChatResponse{Message: ollamaMessage{Content: "ready"}}
	action, err := parseOllamaResponse(resp)
	if err != nil {
		t.Fatalf("parseOllamaResponse() error = %v", err)
	}
	if action.Kind != ActionText || action.Text != "ready" {
		t.Fatalf("parseOllamaResponse() = %+v", action)
	}
}

func TestParseOllamaResponseToolCall(t *testing.T) {
	resp := ollamaChatResponse{Message: ollamaMessage{
		ToolCalls: []ollamaToolCall{{Function: ollamaFunctionCall{Name: "run_bash", Arguments: map[string]any{"command": "ls"}}}},
	}}
	action, err := parseOllamaResponse(resp)
	if err != nil {
		t.Fatalf("parseOllamaResponse() error = %v", err)
	}
	if action.Kind != ActionToolCall || action.Name != "run_bash" {
		t.Fatalf("parseOllamaResponse() = %+v", action)
	}
}

func TestParseOllamaResponseEmpty(t *testing.T) {
	if _, err := parseOllamaResponse(ollamaChatResponse{}); err == nil {
		t.Fatalf("expected error for empty message")
	}
}
