package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfigPath returns the TOML file Load reads absent an
// explicit --config-file override: <user config dir>/taskter/config.toml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "taskter", "config.toml")
}

// Load resolves a Config through all four layers: defaults, the TOML
// file at path (silently skipped if it does not exist), environment
// variables, and flags (nil is a valid "no flags changed" set). A
// .env file in the current working directory is auto-loaded into the
// process environment before the environment layer is read, ahead of
// the layer it feeds.
func Load(path string, flags *Flags) (*Config, error) {
	_ = godotenv.Load() // no .env file is not an error

	cfg := Defaults()

	if path == "" {
		path = DefaultConfigPath()
	}
	if err := mergeTOMLFile(cfg, path); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if flags != nil {
		flags.apply(cfg)
	}

	return cfg, nil
}

// mergeTOMLFile decodes the TOML file at path onto cfg, leaving cfg
// untouched when the file does not exist. Each field set in the file
// overrides the corresponding default; fields the file omits keep
// whatever cfg already held.
func mergeTOMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fromFile Config
	if _, err := toml.Decode(string(data), &fromFile); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	mergeNonZero(cfg, &fromFile)
	return nil
}

// mergeNonZero overlays every non-zero-valued field of src onto dst,
// field by field: "if zero, keep the lower layer's value", run in the
// opposite direction from the env/flag layers — here the *upper* layer
// (the TOML file) is the one deciding whether to override.
func mergeNonZero(dst *Config, src *Config) {
	if src.Board.Dir != "" {
		dst.Board.Dir = src.Board.Dir
	}
	if src.Providers.GeminiAPIKey != "" {
		dst.Providers.GeminiAPIKey = src.Providers.GeminiAPIKey
	}
	if src.Providers.OpenAIAPIKey != "" {
		dst.Providers.OpenAIAPIKey = src.Providers.OpenAIAPIKey
	}
	if src.Providers.OpenAIBaseURL != "" {
		dst.Providers.OpenAIBaseURL = src.Providers.OpenAIBaseURL
	}
	if src.Providers.OllamaBaseURL != "" {
		dst.Providers.OllamaBaseURL = src.Providers.OllamaBaseURL
	}
	if src.Tools.SearchAPIEndpoint != "" {
		dst.Tools.SearchAPIEndpoint = src.Tools.SearchAPIEndpoint
	}
	if src.Executor.MaxIterations != 0 {
		dst.Executor.MaxIterations = src.Executor.MaxIterations
	}
	if src.Executor.DefaultTimeout != 0 {
		dst.Executor.DefaultTimeout = src.Executor.DefaultTimeout
	}
	if src.Scheduler.DefaultTimezone != "" {
		dst.Scheduler.DefaultTimezone = src.Scheduler.DefaultTimezone
	}
	if src.MCP.Trace {
		dst.MCP.Trace = true
	}
	if src.MCP.TraceFile != "" {
		dst.MCP.TraceFile = src.MCP.TraceFile
	}
	if src.MCP.TraceStderr {
		dst.MCP.TraceStderr = true
	}
}

// PropagateToEnvironment copies every resolved provider/tool setting
// into the process environment under its legacy bare name, but only
// where that variable is not already set — a value already present in
// the environment is, by definition, the environment layer's own
// choice and must not be clobbered by a lower layer's resolved value.
// The one exception is a legacy name whose TASKTER__ counterpart is
// also set: the namespaced variable wins within the environment layer,
// so its resolved value replaces the legacy one.
// This lets the provider and tool packages go on reading os.Getenv
// directly without importing internal/config.
func (c *Config) PropagateToEnvironment() {
	setIfAbsent("GEMINI_API_KEY", c.Providers.GeminiAPIKey)
	setIfAbsent("OPENAI_API_KEY", c.Providers.OpenAIAPIKey)
	setIfAbsent("OPENAI_BASE_URL", c.Providers.OpenAIBaseURL)
	setIfAbsent("OLLAMA_BASE_URL", c.Providers.OllamaBaseURL)
	setIfAbsent("SEARCH_API_ENDPOINT", c.Tools.SearchAPIEndpoint)
	if c.MCP.Trace {
		setIfAbsent("TASKTER_MCP_TRACE", "1")
	}
	setIfAbsent("TASKTER_MCP_TRACE_FILE", c.MCP.TraceFile)
	if c.MCP.TraceStderr {
		setIfAbsent("TASKTER_MCP_TRACE_STDERR", "1")
	}
}

// namespacedOverride maps each legacy bare name to the TASKTER__
// variable that outranks it.
var namespacedOverride = map[string]string{
	"GEMINI_API_KEY":      "TASKTER__PROVIDERS__GEMINI_API_KEY",
	"OPENAI_API_KEY":      "TASKTER__PROVIDERS__OPENAI_API_KEY",
	"OPENAI_BASE_URL":     "TASKTER__PROVIDERS__OPENAI_BASE_URL",
	"OLLAMA_BASE_URL":     "TASKTER__PROVIDERS__OLLAMA_BASE_URL",
	"SEARCH_API_ENDPOINT": "TASKTER__TOOLS__SEARCH_API_ENDPOINT",
}

func setIfAbsent(key, value string) {
	if value == "" {
		return
	}
	if _, present := os.LookupEnv(key); present {
		if _, overridden := os.LookupEnv(namespacedOverride[key]); !overridden {
			return
		}
	}
	os.Setenv(key, value)
}
