package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// CLIRunner re-enters a CLI verb in-process and returns its captured
// output (stdout and stderr combined). Implemented by cmd/taskter against the very same command tree
// the interactive CLI runs, so taskter_task/taskter_agent/taskter_okrs
// behave identically whether invoked by a human or an agent, rather than
// shelling out to a subprocess copy of the binary.
type CLIRunner func(ctx context.Context, args []string) (string, error)

// CLITool wraps a CLIRunner as a named tool. One instance each backs
// taskter_task, taskter_agent, taskter_okrs and taskter_tools.
type CLITool struct {
	name        string
	description string
	run         CLIRunner
}

// NewCLITool returns a tool named name that forwards its {"args": [...]}
// payload to run.
func NewCLITool(name, description string, run CLIRunner) *CLITool {
	return &CLITool{name: name, description: description, run: run}
}

func (t *CLITool) Name() string        { return t.name }
func (t *CLITool) Description() string { return t.description }

func (t *CLITool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"args": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["args"]
	}`)
}

func (t *CLITool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Args []string `json:"args"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if t.run == nil {
		return "", fmt.Errorf("%s: no CLI runner configured", t.name)
	}
	return t.run(ctx, in.Args)
}
