package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/tomatyss/taskter/pkg/models"
)

// Gemini drives Google's Gemini API via the genai SDK. Unlike the other
// three variants it never builds raw HTTP requests: the SDK owns the
// wire format, so Complete marshals the request/response shapes it
// passed to and received from the SDK purely for api_responses.log.
type Gemini struct {
	mu     sync.Mutex
	client *genai.Client
}

// NewGemini returns the Gemini provider variant. The SDK client is
// created lazily on first Complete call once an API key is known.
func NewGemini() *Gemini {
	return &Gemini{}
}

func (p *Gemini) Name() string      { return "gemini" }
func (p *Gemini) APIKeyEnv() string { return "GEMINI_API_KEY" }

func (p *Gemini) BuildHistory(agent *models.Agent, userPrompt string) []Message {
	// Gemini's system instruction is a separate field rather than a
	// history turn, so the system prompt is carried on the Agent and
	// applied by Complete as the request's SystemInstruction rather than
	// appended here.
	return []Message{{Role: "user", Content: userPrompt}}
}

func (p *Gemini) AppendToolResult(history []Message, call models.ToolCall, output string, ok bool) []Message {
	history = append(history, Message{Role: "assistant", ToolCall: &call})
	history = append(history, Message{Role: "tool", ToolCallID: call.ID, ToolOutput: output})
	return history
}

func (p *Gemini) ensureClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *Gemini) Complete(ctx context.Context, apiKey string, agent *models.Agent, history []Message) (Action, Exchange, error) {
	client, err := p.ensureClient(ctx, apiKey)
	if err != nil {
		return Action{}, Exchange{}, NewError(p.Name(), agent.Model, err)
	}

	contents := geminiContents(history)
	config := &genai.GenerateContentConfig{}
	if strings.TrimSpace(agent.SystemPrompt) != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: agent.SystemPrompt}},
		}
	}
	if tools := geminiTools(agent.Tools); len(tools) > 0 {
		config.Tools = tools
	}

	reqBody, _ := json.Marshal(struct {
		Model    string           `json:"model"`
		Contents []*genai.Content `json:"contents"`
	}{Model: agent.Model, Contents: contents})

	resp, err := client.Models.GenerateContent(ctx, agent.Model, contents, config)
	if err != nil {
		return Action{}, Exchange{Request: reqBody}, NewError(p.Name(), agent.Model, err)
	}

	respBody, _ := json.Marshal(resp)

	action, err := parseGeminiResponse(resp)
	if err != nil {
		return Action{}, Exchange{Request: reqBody, Response: respBody}, NewError(p.Name(), agent.Model, err)
	}
	return action, Exchange{Request: reqBody, Response: respBody}, nil
}

// geminiContents converts history to the SDK's Content list. Gemini
// correlates a function response to its call by function name rather
// than a call ID (it has none), so a "tool" turn is resolved against the
// name carried on the immediately preceding assistant tool-call turn.
func geminiContents(history []Message) []*genai.Content {
	var out []*genai.Content
	lastToolName := ""
	for _, m := range history {
		switch m.Role {
		case "system":
			continue
		case "user":
			out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		case "assistant":
			if m.ToolCall != nil {
				var args map[string]any
				_ = json.Unmarshal(m.ToolCall.Input, &args)
				lastToolName = m.ToolCall.Name
				out = append(out, &genai.Content{
					Role: genai.RoleModel,
					Parts: []*genai.Part{{
						FunctionCall: &genai.FunctionCall{Name: m.ToolCall.Name, Args: args},
					}},
				})
				continue
			}
			out = append(out, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		case "tool":
			out = append(out, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     lastToolName,
						Response: map[string]any{"output": m.ToolOutput},
					},
				}},
			})
		}
	}
	return out
}

// geminiTools declares name and description only: translating a tool's
// JSON Schema parameters into genai.Schema is not attempted here, so
// Gemini agents rely on the description to communicate argument shape.
func geminiTools(decls []models.ToolDeclaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}
	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fns = append(fns, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (Action, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Action{}, fmt.Errorf("response has no candidates")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			return Action{
				Kind: ActionToolCall,
				Name: part.FunctionCall.Name,
				Args: args,
			}, nil
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return Action{}, fmt.Errorf("response has no text or function call part")
	}
	return Action{Kind: ActionText, Text: text.String()}, nil
}
