// Package models holds the wire-level and on-disk data shapes shared by
// every Taskter component: the board store, the tool registry, the
// provider adapters and the agent executor.
package models

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "ToDo"
	StatusInProgress TaskStatus = "InProgress"
	StatusBlocked    TaskStatus = "Blocked"
	StatusDone       TaskStatus = "Done"
)

// Task is a single card on the board.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	AgentID     *int       `json:"agent_id,omitempty"`
	Comment     string     `json:"comment,omitempty"`
}

// Board is the on-disk shape of board.json.
type Board struct {
	Tasks  []Task `json:"tasks"`
	NextID int    `json:"next_id"`
}

// ToolDeclaration is how an Agent advertises one of its tools; it doubles
// as the payload a provider translates into its own tool-schema wire
// format.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Schedule is an agent's cron trigger, embedded on the Agent record and
// mirrored into schedules.json keyed by agent ID.
type Schedule struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone,omitempty"`
	Once     bool   `json:"once,omitempty"`
}

// Agent is a declarative bundle of system prompt, tool list and target
// model.
type Agent struct {
	ID           int               `json:"id"`
	SystemPrompt string            `json:"system_prompt"`
	Tools        []ToolDeclaration `json:"tools"`
	Model        string            `json:"model"`
	Provider     string            `json:"provider,omitempty"`
	Schedule     *Schedule         `json:"schedule,omitempty"`
}

// AgentBoard is the on-disk shape of agents.json.
type AgentBoard struct {
	Agents []Agent `json:"agents"`
	NextID int     `json:"next_id"`
}

// HasTool reports whether the agent declares a tool by this name.
func (a Agent) HasTool(name string) bool {
	for _, t := range a.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// OKR is a single objective with its key results.
type OKR struct {
	Objective  string   `json:"objective"`
	KeyResults []string `json:"key_results"`
}

// ScheduleEntry is one row of schedules.json: an agent ID mapped to its
// cron trigger. Metadata is an extensibility bag, round-tripped but not
// interpreted by any current operation.
type ScheduleEntry struct {
	Cron     string         `json:"cron"`
	Timezone string         `json:"tz,omitempty"`
	Once     bool           `json:"once,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Schedules is the on-disk shape of schedules.json: agent_id -> entry.
type Schedules map[string]ScheduleEntry

// LogEntry is one line of logs.log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// EmailConfig holds SMTP/IMAP credentials read from email_config.json.
type EmailConfig struct {
	SMTPServer string `json:"smtp_server"`
	SMTPPort   int    `json:"smtp_port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	IMAPServer string `json:"imap_server,omitempty"`
	IMAPPort   int    `json:"imap_port,omitempty"`
}

// ToolCall represents a provider's request to execute a tool.
type ToolCall struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult represents the output of a tool execution fed back to the
// provider.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	OK         bool   `json:"ok"`
}
