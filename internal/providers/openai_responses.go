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

// OpenAIResponses drives OpenAI's Responses API. Unlike Chat Completions,
// history is a flat list of typed "items"; a tool call and its result are
// two separate items correlated by call_id rather than nested inside one
// assistant message. This is the default OpenAI variant inferred from a
// gpt-*/o1/o3 model prefix.
type OpenAIResponses struct {
	retrier
}

// NewOpenAIResponses returns the Responses API provider variant.
func NewOpenAIResponses() *OpenAIResponses {
	return &OpenAIResponses{retrier: newRetrier(3, time.Second)}
}

func (p *OpenAIResponses) Name() string      { return "openai-responses" }
func (p *OpenAIResponses) APIKeyEnv() string { return "OPENAI_API_KEY" }

func (p *OpenAIResponses) BuildHistory(agent *models.Agent, userPrompt string) []Message {
	var history []Message
	if strings.TrimSpace(agent.SystemPrompt) != "" {
		history = append(history, Message{Role: "system", Content: agent.SystemPrompt})
	}
	history = append(history, Message{Role: "user", Content: userPrompt})
	return history
}

func (p *OpenAIResponses) AppendToolResult(history []Message, call models.ToolCall, output string, ok bool) []Message {
	history = append(history, Message{Role: "assistant", ToolCall: &call})
	history = append(history, Message{Role: "tool", ToolCallID: call.ID, ToolOutput: output})
	return history
}

// responsesItem is one element of the Responses API's "input" array, and
// also of its "output" array in the decoded response. The field set is a
// union across message/function_call/function_call_output item types;
// unused fields are omitted on marshal via omitempty.
type responsesItem struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// function_call_output
	Output string `json:"output,omitempty"`
}

type responsesTool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type responsesRequest struct {
	Model string          `json:"model"`
	Input []responsesItem `json:"input"`
	Tools []responsesTool `json:"tools,omitempty"`
}

type responsesResponse struct {
	Output []responsesItem `json:"output"`
}

func (p *OpenAIResponses) endpoint() string {
	if e := strings.TrimSpace(os.Getenv(EnvOpenAIRespEndpoint)); e != "" {
		return e
	}
	base := strings.TrimRight(strings.TrimSpace(os.Getenv(EnvOpenAIBaseURL)), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return base + "/responses"
}

func (p *OpenAIResponses) Complete(ctx context.Context, apiKey string, agent *models.Agent, history []Message) (Action, Exchange, error) {
	req := responsesRequest{
		Model: agent.Model,
		Input: toResponsesItems(history),
		Tools: toResponsesTools(agent.Tools),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return Action{}, Exchange{}, NewError(p.Name(), agent.Model, fmt.Errorf("marshal request: %w", err))
	}

	var resp responsesResponse
	var respBody []byte
	err = p.run(ctx, isRetryableHTTP, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), strings.NewReader(string(reqBody)))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)

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

	action, err := parseResponsesOutput(resp)
	if err != nil {
		return Action{}, Exchange{Request: reqBody, Response: respBody}, NewError(p.Name(), agent.Model, err)
	}
	return action, Exchange{Request: reqBody, Response: respBody}, nil
}

// toResponsesItems flattens the provider-neutral history into the
// Responses API's item list. A tool turn becomes a function_call item
// (from the preceding assistant message) and its function_call_output,
// correlated by call_id so a multi-turn transcript replays correctly.
func toResponsesItems(history []Message) []responsesItem {
	items := make([]responsesItem, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "tool":
			items = append(items, responsesItem{
				Type:   "function_call_output",
				CallID: m.ToolCallID,
				Output: m.ToolOutput,
			})
		case "assistant":
			if m.ToolCall != nil {
				items = append(items, responsesItem{
					Type:      "function_call",
					CallID:    m.ToolCall.ID,
					Name:      m.ToolCall.Name,
					Arguments: string(m.ToolCall.Input),
				})
				continue
			}
			items = append(items, responsesItem{Type: "message", Role: "assistant", Content: m.Content})
		default:
			items = append(items, responsesItem{Type: "message", Role: m.Role, Content: m.Content})
		}
	}
	return items
}

func toResponsesTools(decls []models.ToolDeclaration) []responsesTool {
	if len(decls) == 0 {
		return nil
	}
	tools := make([]responsesTool, 0, len(decls))
	for _, d := range decls {
		tools = append(tools, responsesTool{
			Type:        "function",
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return tools
}

func parseResponsesOutput(resp responsesResponse) (Action, error) {
	var text strings.Builder
	for _, item := range resp.Output {
		switch item.Type {
		case "function_call":
			return Action{
				Kind:   ActionToolCall,
				Name:   item.Name,
				Args:   json.RawMessage(item.Arguments),
				CallID: item.CallID,
			}, nil
		case "message":
			text.WriteString(item.Content)
		}
	}
	if text.Len() == 0 {
		return Action{}, fmt.Errorf("response has no message or function_call output item")
	}
	return Action{Kind: ActionText, Text: text.String()}, nil
}
