package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tomatyss/taskter/pkg/models"
)

// Ollama drives a local Ollama server's /api/chat endpoint. There is no
// Ollama Go SDK available, so this is a hand-rolled net/http +
// encoding/json client rather than a wrapped library.
type Ollama struct {
	retrier
}

// NewOllama returns the Ollama provider variant.
func NewOllama() *Ollama {
	return &Ollama{retrier: newRetrier(3, time.Second)}
}

func (p *Ollama) Name() string      { return "ollama" }
func (p *Ollama) APIKeyEnv() string { return "" } // Ollama is unauthenticated; see executor offline-mode handling

func (p *Ollama) BuildHistory(agent *models.Agent, userPrompt string) []Message {
	var history []Message
	if strings.TrimSpace(agent.SystemPrompt) != "" {
		history = append(history, Message{Role: "system", Content: agent.SystemPrompt})
	}
	history = append(history, Message{Role: "user", Content: userPrompt})
	return history
}

func (p *Ollama) AppendToolResult(history []Message, call models.ToolCall, output string, ok bool) []Message {
	history = append(history, Message{Role: "assistant", ToolCall: &call})
	history = append(history, Message{Role: "tool", ToolCallID: call.ID, ToolOutput: output})
	return history
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (p *Ollama) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv(EnvOllamaBaseURL)), "/")
	if base == "" {
		base = "http://localhost:11434"
	}
	return base
}

func (p *Ollama) Complete(ctx context.Context, apiKey string, agent *models.Agent, history []Message) (Action, Exchange, error) {
	req := ollamaChatRequest{
		Model:    agent.Model,
		Messages: toOllamaMessages(history),
		Tools:    toOllamaTools(agent.Tools),
		Stream:   false,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return Action{}, Exchange{}, NewError(p.Name(), agent.Model, fmt.Errorf("marshal request: %w", err))
	}

	var resp ollamaChatResponse
	var respBody []byte
	err = p.run(ctx, isRetryableHTTP, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/api/chat", strings.NewReader(string(reqBody)))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := http.DefaultClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		respBody, err = readAll(httpResp.Body)
		if err != nil {
			return err
		}
		if httpResp.StatusCode >= 300 {
			return NewError(p.Name(), agent.Model, fmt.Errorf("status %d: %s", httpResp.StatusCode, respBody)).WithStatus(httpResp.StatusCode)
		}
		return json.Unmarshal(respBody, &resp)
	})
	if err != nil {
		return Action{}, Exchange{Request: reqBody, Response: respBody}, err
	}

	action, err := parseOllamaResponse(resp)
	if err != nil {
		return Action{}, Exchange{Request: reqBody, Response: respBody}, NewError(p.Name(), agent.Model, err)
	}
	return action, Exchange{Request: reqBody, Response: respBody}, nil
}

func toOllamaMessages(history []Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "tool":
			out = append(out, ollamaMessage{Role: "tool", Content: m.ToolOutput})
		case "assistant":
			if m.ToolCall != nil {
				var args map[string]any
				_ = json.Unmarshal(m.ToolCall.Input, &args)
				out = append(out, ollamaMessage{
					Role: "assistant",
					ToolCalls: []ollamaToolCall{{
						Function: ollamaFunctionCall{Name: m.ToolCall.Name, Arguments: args},
					}},
				})
				continue
			}
			out = append(out, ollamaMessage{Role: "assistant", Content: m.Content})
		default:
			out = append(out, ollamaMessage{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

func toOllamaTools(decls []models.ToolDeclaration) []ollamaTool {
	if len(decls) == 0 {
		return nil
	}
	tools := make([]ollamaTool, 0, len(decls))
	for _, d := range decls {
		tools = append(tools, ollamaTool{
			Type: "function",
			Function: ollamaFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return tools
}

func parseOllamaResponse(resp ollamaChatResponse) (Action, error) {
	if len(resp.Message.ToolCalls) > 0 {
		tc := resp.Message.ToolCalls[0]
		args, _ := json.Marshal(tc.Function.Arguments)
		return Action{Kind: ActionToolCall, Name: tc.Function.Name, Args: args}, nil
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return Action{}, fmt.Errorf("response has no content or tool call")
	}
	return Action{Kind: ActionText, Text: resp.Message.Content}, nil
}
