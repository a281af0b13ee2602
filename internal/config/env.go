package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides reads the environment layer: first the legacy
// bare-name variables (GEMINI_API_KEY, OPENAI_API_KEY,
// OPENAI_BASE_URL, OLLAMA_BASE_URL, SEARCH_API_ENDPOINT), then the
// TASKTER__SECTION__KEY namespaced variables, which win when both are
// set.
func applyEnvOverrides(cfg *Config) {
	applyLegacyEnv(cfg)
	applyNamespacedEnv(cfg)
}

func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Providers.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Providers.OpenAIBaseURL = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Providers.OllamaBaseURL = v
	}
	if v := os.Getenv("SEARCH_API_ENDPOINT"); v != "" {
		cfg.Tools.SearchAPIEndpoint = v
	}
}

// namespacedEnvKeys maps a TASKTER__SECTION__KEY name to the setter
// that applies its string value onto cfg.
var namespacedEnvKeys = map[string]func(cfg *Config, value string){
	"TASKTER__BOARD__DIR":                 func(c *Config, v string) { c.Board.Dir = v },
	"TASKTER__PROVIDERS__GEMINI_API_KEY":  func(c *Config, v string) { c.Providers.GeminiAPIKey = v },
	"TASKTER__PROVIDERS__OPENAI_API_KEY":  func(c *Config, v string) { c.Providers.OpenAIAPIKey = v },
	"TASKTER__PROVIDERS__OPENAI_BASE_URL": func(c *Config, v string) { c.Providers.OpenAIBaseURL = v },
	"TASKTER__PROVIDERS__OLLAMA_BASE_URL": func(c *Config, v string) { c.Providers.OllamaBaseURL = v },
	"TASKTER__TOOLS__SEARCH_API_ENDPOINT": func(c *Config, v string) { c.Tools.SearchAPIEndpoint = v },
	"TASKTER__SCHEDULER__DEFAULT_TIMEZONE": func(c *Config, v string) {
		c.Scheduler.DefaultTimezone = v
	},
	"TASKTER__MCP__TRACE_FILE": func(c *Config, v string) { c.MCP.TraceFile = v },
	"TASKTER__EXECUTOR__MAX_ITERATIONS": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Executor.MaxIterations = n
		}
	},
	"TASKTER__EXECUTOR__DEFAULT_TIMEOUT": func(c *Config, v string) {
		if d, err := time.ParseDuration(v); err == nil {
			c.Executor.DefaultTimeout = d
		}
	},
	"TASKTER__MCP__TRACE": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MCP.Trace = b
		}
	},
	"TASKTER__MCP__TRACE_STDERR": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MCP.TraceStderr = b
		}
	},
}

func applyNamespacedEnv(cfg *Config) {
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, "TASKTER__") {
			continue
		}
		if setter, ok := namespacedEnvKeys[key]; ok {
			setter(cfg, value)
		}
	}
}
