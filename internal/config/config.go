// Package config resolves Taskter's settings through four layers of
// strictly increasing precedence: code defaults, a TOML file, process
// environment variables, and CLI flags. The first layer that sets a
// value wins; nothing downstream is consulted once a higher layer has
// already spoken for a field.
package config

import "time"

// Config holds every setting a taskter process needs outside of the
// per-agent/per-task data already carried in the Board Store.
type Config struct {
	Board     BoardConfig     `toml:"board"`
	Providers ProvidersConfig `toml:"providers"`
	Tools     ToolsConfig     `toml:"tools"`
	Executor  ExecutorConfig  `toml:"executor"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	MCP       MCPConfig       `toml:"mcp"`
}

// BoardConfig locates the on-disk store. Dir is the project directory
// passed to board.Open/board.Init, which themselves append ".taskter"
// — Dir is not the store directory itself.
type BoardConfig struct {
	Dir string `toml:"dir"`
}

// ProvidersConfig carries the legacy bare-name credentials and
// endpoints that the provider adapters themselves read directly via
// os.Getenv. Config's job is to let a TOML file or a TASKTER__ env var
// set these just as authoritatively as the legacy name:
// PropagateToEnvironment copies the resolved values into the process
// environment under the legacy names so unmodified provider code picks
// them up.
type ProvidersConfig struct {
	GeminiAPIKey  string `toml:"gemini_api_key"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url"`
	OllamaBaseURL string `toml:"ollama_base_url"`
}

// ToolsConfig configures built-in tool defaults.
type ToolsConfig struct {
	SearchAPIEndpoint string `toml:"search_api_endpoint"`
}

// ExecutorConfig bounds the agent reason/act loop.
type ExecutorConfig struct {
	MaxIterations  int           `toml:"max_iterations"`
	DefaultTimeout time.Duration `toml:"default_timeout"`
}

// SchedulerConfig sets the fallback timezone for schedule entries that
// do not declare their own.
type SchedulerConfig struct {
	DefaultTimezone string `toml:"default_timezone"`
}

// MCPConfig controls the stdio server's trace log.
type MCPConfig struct {
	Trace       bool   `toml:"trace"`
	TraceFile   string `toml:"trace_file"`
	TraceStderr bool   `toml:"trace_stderr"`
}

// These mirror internal/executor.MaxIterations and
// internal/scheduler.DefaultTimezone. They are duplicated here, rather
// than imported, to keep internal/config free of a dependency on the
// packages it configures.
const (
	defaultMaxIterations  = 20
	defaultAgentTimeout   = 300 * time.Second
	defaultTimezone       = "America/New_York"
	defaultBoardDir       = "."
	defaultSearchEndpoint = "https://api.duckduckgo.com/"
)

// Defaults returns the bottom layer of the resolution chain.
func Defaults() *Config {
	return &Config{
		Board: BoardConfig{Dir: defaultBoardDir},
		Tools: ToolsConfig{SearchAPIEndpoint: defaultSearchEndpoint},
		Executor: ExecutorConfig{
			MaxIterations:  defaultMaxIterations,
			DefaultTimeout: defaultAgentTimeout,
		},
		Scheduler: SchedulerConfig{DefaultTimezone: defaultTimezone},
	}
}
