// Package providers adapts Taskter's agent loop to the wire formats of
// four LLM backends behind one closed interface: Gemini, OpenAI's Chat
// Completions API, OpenAI's Responses API and Ollama.
package providers

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/tomatyss/taskter/pkg/models"
)

// ActionKind discriminates a provider's parsed response.
type ActionKind int

const (
	ActionText ActionKind = iota
	ActionToolCall
)

// Action is the result of interpreting one provider response: either the
// agent's terminal text, or a request to invoke a tool.
type Action struct {
	Kind ActionKind
	Text string

	Name   string
	Args   json.RawMessage
	CallID string
}

// Message is a provider-neutral turn in the conversation history built up
// across the agent loop.
type Message struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string

	// Set when Role == "assistant" and the turn was a tool call.
	ToolCall *models.ToolCall

	// Set when Role == "tool": the result fed back for ToolCallID.
	ToolCallID string
	ToolOutput string
}

// Exchange is the raw request/response pair a provider sends over the
// wire for one turn, captured so the executor can mirror it into
// api_responses.log before interpreting the Action.
type Exchange struct {
	Request  json.RawMessage
	Response json.RawMessage
}

// Provider is the closed set of operations an LLM backend must implement
// for the agent loop to drive it. There is deliberately no registration
// mechanism or open interface hierarchy: Select below is a single pure
// function over a fixed variant list.
type Provider interface {
	// Name identifies the provider for logging and api_responses.log.
	Name() string

	// APIKeyEnv is the environment variable the executor checks before
	// deciding whether to run live or fall back to offline simulation.
	APIKeyEnv() string

	// BuildHistory seeds the conversation from the agent's system prompt
	// and the composed user prompt.
	BuildHistory(agent *models.Agent, userPrompt string) []Message

	// AppendToolResult appends the outcome of dispatching call to history.
	AppendToolResult(history []Message, call models.ToolCall, output string, ok bool) []Message

	// Complete sends history (with agent's declared tools) to the
	// backend and returns the interpreted Action alongside the raw
	// exchange for logging. apiKey is the resolved credential; callers
	// only invoke Complete once APIKeyEnv's variable is known to be set,
	// since an absent key means offline simulation, never a live call.
	Complete(ctx context.Context, apiKey string, agent *models.Agent, history []Message) (Action, Exchange, error)
}

// These are the documented override environment variables consulted
// during provider selection and request construction.
// EnvOpenAIResponseFormat is declared here but not read by any variant.
const (
	EnvOpenAIRequestStyle   = "OPENAI_REQUEST_STYLE"
	EnvOpenAIBaseURL        = "OPENAI_BASE_URL"
	EnvOpenAIChatEndpoint   = "OPENAI_CHAT_ENDPOINT"
	EnvOpenAIRespEndpoint   = "OPENAI_RESPONSES_ENDPOINT"
	EnvOpenAIResponseFormat = "OPENAI_RESPONSE_FORMAT"
	EnvOllamaBaseURL        = "OLLAMA_BASE_URL"
)

// openAIModelPrefixes are the model-name prefixes that select an OpenAI
// variant when an agent does not set Provider explicitly.
var openAIModelPrefixes = []string{"gpt-4", "gpt-5", "gpt-4o", "gpt-4.1", "o1", "o3", "o4", "omni"}

// ollamaModelPrefixes are the separators Ollama model names use to carry
// a registry/tag prefix (e.g. "ollama:llama3", "ollama/llama3").
var ollamaModelPrefixes = []string{"ollama:", "ollama/", "ollama-"}

// Select resolves the Provider for agent. Explicit agent.Provider always
// wins; otherwise the model name is matched by prefix, and
// OPENAI_REQUEST_STYLE can force the OpenAI variant between "chat" and
// "responses" once an OpenAI prefix matches. A model with no recognized
// prefix defaults to Gemini. No provider maintains its own registration:
// this is the single point of truth.
func Select(agent *models.Agent) Provider {
	name := strings.ToLower(strings.TrimSpace(agent.Provider))
	if name == "" {
		name = inferFromModel(agent.Model)
	}

	switch name {
	case "gemini", "google":
		return NewGemini()
	case "openai-chat":
		return NewOpenAIChat()
	case "openai-responses", "openai":
		return NewOpenAIResponses()
	case "ollama":
		return NewOllama()
	default:
		return NewGemini()
	}
}

func inferFromModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))

	if strings.HasPrefix(m, "gemini") {
		return "gemini"
	}
	for _, sep := range ollamaModelPrefixes {
		if strings.HasPrefix(m, sep) {
			return "ollama"
		}
	}
	for _, p := range openAIModelPrefixes {
		if strings.HasPrefix(m, p) {
			if style := strings.ToLower(strings.TrimSpace(os.Getenv(EnvOpenAIRequestStyle))); style == "chat" {
				return "openai-chat"
			}
			return "openai-responses"
		}
	}
	return "gemini"
}
