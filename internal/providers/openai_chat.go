package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tomatyss/taskter/pkg/models"
)

// OpenAIChat drives OpenAI's Chat Completions API, built against
// go-openai's request/response structs directly rather than its
// streaming client, since the executor wants one complete turn at a
// time.
type OpenAIChat struct {
	retrier
}

// NewOpenAIChat returns the Chat Completions provider variant.
func NewOpenAIChat() *OpenAIChat {
	return &OpenAIChat{retrier: newRetrier(3, time.Second)}
}

func (p *OpenAIChat) Name() string      { return "openai-chat" }
func (p *OpenAIChat) APIKeyEnv() string { return "OPENAI_API_KEY" }

func (p *OpenAIChat) BuildHistory(agent *models.Agent, userPrompt string) []Message {
	var history []Message
	if strings.TrimSpace(agent.SystemPrompt) != "" {
		history = append(history, Message{Role: "system", Content: agent.SystemPrompt})
	}
	history = append(history, Message{Role: "user", Content: userPrompt})
	return history
}

func (p *OpenAIChat) AppendToolResult(history []Message, call models.ToolCall, output string, ok bool) []Message {
	history = append(history, Message{Role: "assistant", ToolCall: &call})
	history = append(history, Message{Role: "tool", ToolCallID: call.ID, ToolOutput: output})
	return history
}

func (p *OpenAIChat) chatEndpoint() string {
	if e := strings.TrimSpace(os.Getenv(EnvOpenAIChatEndpoint)); e != "" {
		return e
	}
	base := strings.TrimRight(strings.TrimSpace(os.Getenv(EnvOpenAIBaseURL)), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return base + "/chat/completions"
}

func (p *OpenAIChat) Complete(ctx context.Context, apiKey string, agent *models.Agent, history []Message) (Action, Exchange, error) {
	req := openai.ChatCompletionRequest{
		Model:    agent.Model,
		Messages: toChatMessages(history),
		Tools:    toChatTools(agent.Tools),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return Action{}, Exchange{}, NewError(p.Name(), agent.Model, fmt.Errorf("marshal request: %w", err))
	}

	var resp openai.ChatCompletionResponse
	var respBody []byte
	err = p.run(ctx, isRetryableHTTP, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatEndpoint(), strings.NewReader(string(reqBody)))
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

	action, err := parseChatResponse(resp)
	if err != nil {
		return Action{}, Exchange{Request: reqBody, Response: respBody}, NewError(p.Name(), agent.Model, err)
	}
	return action, Exchange{Request: reqBody, Response: respBody}, nil
}

func toChatMessages(history []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "tool":
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.ToolOutput,
				ToolCallID: m.ToolCallID,
			})
		case "assistant":
			if m.ToolCall != nil {
				out = append(out, openai.ChatCompletionMessage{
					Role: openai.ChatMessageRoleAssistant,
					ToolCalls: []openai.ToolCall{{
						ID:   m.ToolCall.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      m.ToolCall.Name,
							Arguments: string(m.ToolCall.Input),
						},
					}},
				})
				continue
			}
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content})
		default:
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

func toChatTools(decls []models.ToolDeclaration) []openai.Tool {
	if len(decls) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(decls))
	for _, d := range decls {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  json.RawMessage(d.Parameters),
			},
		})
	}
	return tools
}

func parseChatResponse(resp openai.ChatCompletionResponse) (Action, error) {
	if len(resp.Choices) == 0 {
		return Action{}, fmt.Errorf("response has no choices")
	}
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		return Action{
			Kind:   ActionToolCall,
			Name:   tc.Function.Name,
			Args:   json.RawMessage(tc.Function.Arguments),
			CallID: tc.ID,
		}, nil
	}
	return Action{Kind: ActionText, Text: msg.Content}, nil
}
