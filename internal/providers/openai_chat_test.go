package providers

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestParseChatResponseText(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: "done"},
		}},
	}
	action, err := parseChatResponse(resp)
	if err != nil {
		t.Fatalf("parseChatResponse() error = %v", err)
	}
	if action.Kind != ActionText || action.Text != "done" {
		t.Fatalf("parseChatResponse() = %+v", action)
	}
}

func TestParseChatResponseToolCall(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Function: openai.FunctionCall{Name: "run_bash", Arguments: `{"command":"ls"}`},
				}},
			},
		}},
	}
	action, err := parseChatResponse(resp)
	if err != nil {
		t.Fatalf("parseChatResponse() error = %v", err)
	}
	if action.Kind != ActionToolCall || action.Name != "run_bash" || action.CallID != "call_1" {
		t.Fatalf("parseChatResponse() = %+v", action)
	}
	var args struct{ Command string `json:"command"` }
	if err := json.Unmarshal(action.Args, &args); err != nil || args.Command != "ls" {
		t.Fatalf("args = %s", action.Args)
	}
}

func TestParseChatResponseNoChoices(t *testing.T) {
	if _, err := parseChatResponse(openai.ChatCompletionResponse{}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
