package executor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/internal/providers"
	"github.com/tomatyss/taskter/internal/tools"
	"github.com/tomatyss/taskter/pkg/models"
)

// fakeProvider scripts a fixed sequence of Actions so the loop's dispatch
// and termination behavior can be tested without a network call.
type fakeProvider struct {
	name      string
	apiKeyEnv string
	actions   []providers.Action
	calls     int
}

func (f *fakeProvider) Name() string      { return f.name }
func (f *fakeProvider) APIKeyEnv() string { return f.apiKeyEnv }

func (f *fakeProvider) BuildHistory(agent *models.Agent, userPrompt string) []providers.Message {
	return []providers.Message{{Role: "user", Content: userPrompt}}
}

func (f *fakeProvider) AppendToolResult(history []providers.Message, call models.ToolCall, output string, ok bool) []providers.Message {
	history = append(history, providers.Message{Role: "assistant", ToolCall: &call})
	history = append(history, providers.Message{Role: "tool", ToolCallID: call.ID, ToolOutput: output})
	return history
}

func (f *fakeProvider) Complete(ctx context.Context, apiKey string, agent *models.Agent, history []providers.Message) (providers.Action, providers.Exchange, error) {
	if f.calls >= len(f.actions) {
		return providers.Action{}, providers.Exchange{}, errors.New("fakeProvider: no more scripted actions")
	}
	action := f.actions[f.calls]
	f.calls++
	return action, providers.Exchange{Request: []byte(`{}`), Response: []byte(`{}`)}, nil
}

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes input" }
func (echoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object"}`)
}
func (echoTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	return "echoed", nil
}

func setup(t *testing.T) (*board.Store, *tools.Registry) {
	t.Helper()
	dir := t.TempDir()
	store, err := board.Init(dir)
	if err != nil {
		t.Fatalf("board.Init() error = %v", err)
	}
	registry := tools.NewRegistry()
	registry.Register(echoTool{})
	return store, registry
}

func addTaskAndAgent(t *testing.T, store *board.Store, tools []models.ToolDeclaration) models.Task {
	t.Helper()
	var agentID int
	if err := store.MutateAgents(func(ab *models.AgentBoard) error {
		id, err := board.NextAgentID(ab)
		if err != nil {
			return err
		}
		agentID = id
		ab.Agents = append(ab.Agents, models.Agent{ID: id, SystemPrompt: "you triage tasks", Tools: tools, Model: "gemini-2.0-flash"})
		return nil
	}); err != nil {
		t.Fatalf("MutateAgents() error = %v", err)
	}

	var task models.Task
	if err := store.MutateTasks(func(b *models.Board) error {
		id, err := board.NextTaskID(b)
		if err != nil {
			return err
		}
		task = models.Task{ID: id, Title: "check disk usage", Status: models.StatusInProgress, AgentID: &agentID}
		b.Tasks = append(b.Tasks, task)
		return nil
	}); err != nil {
		t.Fatalf("MutateTasks() error = %v", err)
	}
	return task
}

func TestRunOfflineWithSendEmailSimulatesSuccess(t *testing.T) {
	store, registry := setup(t)
	task := addTaskAndAgent(t, store, []models.ToolDeclaration{{Name: "send_email"}})

	exec := New(store, registry, 0, nil)
	exec.getenv = func(string) string { return "" }

	final, err := exec.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if final.Status != models.StatusDone {
		t.Fatalf("status = %s, want Done", final.Status)
	}
	if !strings.HasPrefix(final.Comment, "simulated") {
		t.Fatalf("comment = %q, want prefix 'simulated'", final.Comment)
	}
	if final.AgentID == nil {
		t.Fatalf("expected agent to remain assigned on offline success")
	}
}

func TestRunOfflineWithoutSendEmailFails(t *testing.T) {
	store, registry := setup(t)
	task := addTaskAndAgent(t, store, nil)

	exec := New(store, registry, 0, nil)
	exec.getenv = func(string) string { return "" }

	final, err := exec.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if final.Status != models.StatusToDo {
		t.Fatalf("status = %s, want ToDo", final.Status)
	}
	if final.AgentID != nil {
		t.Fatalf("expected agent to be unassigned on failure")
	}
	if final.Comment == "" {
		t.Fatalf("expected a failure comment")
	}
}

func TestRunSucceedsOnTerminalText(t *testing.T) {
	store, registry := setup(t)
	task := addTaskAndAgent(t, store, nil)

	fp := &fakeProvider{name: "fake", apiKeyEnv: "FAKE_API_KEY", actions: []providers.Action{
		{Kind: providers.ActionText, Text: "all done"},
	}}
	exec := New(store, registry, 0, nil)
	exec.getenv = func(string) string { return "present" }
	exec.selectProvider = func(*models.Agent) providers.Provider { return fp }

	final, err := exec.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if final.Status != models.StatusDone || final.Comment != "all done" {
		t.Fatalf("final = %+v", final)
	}
}

func TestRunDispatchesToolCallThenSucceeds(t *testing.T) {
	store, registry := setup(t)
	task := addTaskAndAgent(t, store, nil)

	fp := &fakeProvider{name: "fake", apiKeyEnv: "FAKE_API_KEY", actions: []providers.Action{
		{Kind: providers.ActionToolCall, Name: "echo", Args: json.RawMessage(`{}`), CallID: "call_1"},
		{Kind: providers.ActionText, Text: "finished after tool call"},
	}}
	exec := New(store, registry, 0, nil)
	exec.getenv = func(string) string { return "present" }
	exec.selectProvider = func(*models.Agent) providers.Provider { return fp }

	final, err := exec.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if final.Status != models.StatusDone {
		t.Fatalf("status = %s, want Done", final.Status)
	}
	if fp.calls != 2 {
		t.Fatalf("provider called %d times, want 2", fp.calls)
	}
}

func TestRunIterationLimitFailsTask(t *testing.T) {
	store, registry := setup(t)
	task := addTaskAndAgent(t, store, nil)

	fp := &fakeProvider{name: "fake", apiKeyEnv: "FAKE_API_KEY", actions: []providers.Action{
		{Kind: providers.ActionToolCall, Name: "echo", Args: json.RawMessage(`{}`), CallID: "call_1"},
	}}
	exec := New(store, registry, 1, nil)
	exec.getenv = func(string) string { return "present" }
	exec.selectProvider = func(*models.Agent) providers.Provider { return fp }

	final, err := exec.Run(context.Background(), task)
	var limitErr *IterationLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("Run() error = %v, want *IterationLimitError", err)
	}
	if final.Status != models.StatusToDo || final.AgentID != nil {
		t.Fatalf("final = %+v, want ToDo and unassigned", final)
	}
	if final.Comment != "maximum iterations exceeded" {
		t.Fatalf("comment = %q", final.Comment)
	}
}

func TestRunUnassignedTaskFails(t *testing.T) {
	store, registry := setup(t)
	task := models.Task{ID: 99, Title: "orphan"}

	exec := New(store, registry, 0, nil)
	_, err := exec.Run(context.Background(), task)
	var unassigned *UnassignedError
	if !errors.As(err, &unassigned) {
		t.Fatalf("Run() error = %v, want *UnassignedError", err)
	}
}
