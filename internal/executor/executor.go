// Package executor implements Taskter's agent reason/act loop: given a
// task and its assigned agent, it drives a provider through a bounded
// sequence of tool calls until the provider emits terminal text, the
// provider call fails, or the iteration bound is exceeded. Tool errors
// are fed back to the provider as tool results and do not end the loop.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/internal/providers"
	"github.com/tomatyss/taskter/internal/tools"
	"github.com/tomatyss/taskter/pkg/models"
)

// MaxIterations bounds the reason/act loop, fixed at 20 rather than
// left ambiguous between call sites.
const MaxIterations = 20

// Executor drives the loop for one task at a time. It is stateless
// across runs and safe to share between concurrently executing tasks:
// every run only touches the Board Store (already safe for concurrent
// use) and its own local history slice.
type Executor struct {
	Store    *board.Store
	Registry *tools.Registry
	Logger   *slog.Logger

	// getenv and selectProvider are overridden in tests to force the
	// offline-simulation and live-call paths deterministically.
	getenv         func(string) string
	selectProvider func(*models.Agent) providers.Provider

	// maxIterations defaults to MaxIterations; tests shrink it to
	// exercise the iteration-limit path without 20 fake round-trips.
	maxIterations int
}

// New returns an Executor wired to store and registry, logging to
// logger (or slog.Default() when nil). maxIterations bounds the
// reason/act loop; a value <= 0 falls back to MaxIterations, so
// callers that have no opinion (or a zero-value config) still get a
// sane bound.
func New(store *board.Store, registry *tools.Registry, maxIterations int, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxIterations <= 0 {
		maxIterations = MaxIterations
	}
	return &Executor{
		Store:          store,
		Registry:       registry,
		Logger:         logger,
		getenv:         os.Getenv,
		selectProvider: providers.Select,
		maxIterations:  maxIterations,
	}
}

// Run executes task using its assigned agent and returns the task's
// final persisted state. Once the agent is resolved, every outcome —
// success, offline simulation, provider failure, cancellation,
// iteration limit — is written back through the Board Store before Run
// returns, so the returned value and the store agree. An unassigned
// task or a missing agent returns an error without touching the store.
func (e *Executor) Run(ctx context.Context, task models.Task) (models.Task, error) {
	e.logEvent("execution started for task %d", task.ID)

	if task.AgentID == nil {
		err := &UnassignedError{TaskID: task.ID}
		return task, err
	}

	agentBoard, err := e.Store.LoadAgents()
	if err != nil {
		return task, err
	}
	agent, err := board.FindAgent(&agentBoard, *task.AgentID)
	if err != nil {
		return task, err
	}

	provider := e.selectProvider(agent)
	userPrompt := composePrompt(task)
	history := provider.BuildHistory(agent, userPrompt)

	apiKeyEnv := provider.APIKeyEnv()
	apiKey := ""
	if apiKeyEnv != "" {
		apiKey = e.getenv(apiKeyEnv)
	}

	if apiKeyEnv != "" && strings.TrimSpace(apiKey) == "" {
		return e.finishOffline(task, agent)
	}

	finalTask, runErr := e.loop(ctx, provider, apiKey, agent, task, history)
	return finalTask, runErr
}

// finishOffline implements the offline-simulation branch: no live
// provider call is ever made when the required API key is absent.
func (e *Executor) finishOffline(task models.Task, agent *models.Agent) (models.Task, error) {
	if agent.HasTool("send_email") {
		e.logEvent("task %d: offline simulation, send_email present, stubbing success", task.ID)
		return e.succeed(task, "simulated send: offline mode, no API key configured")
	}
	e.logEvent("task %d: offline simulation, no send_email tool, recording failure", task.ID)
	return e.fail(task, "real credentials are required: no API key configured for the assigned agent's provider")
}

// loop runs the bounded reason/act cycle against a live provider.
func (e *Executor) loop(ctx context.Context, provider providers.Provider, apiKey string, agent *models.Agent, task models.Task, history []providers.Message) (models.Task, error) {
	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return e.fail(task, fmt.Sprintf("execution cancelled: %v", err))
		}

		action, exchange, err := provider.Complete(ctx, apiKey, agent, history)
		if logErr := e.mirrorExchange(provider.Name(), exchange); logErr != nil {
			e.logEvent("task %d: failed to append api_responses.log entry: %v", task.ID, logErr)
		}
		if err != nil {
			return e.fail(task, err.Error())
		}

		switch action.Kind {
		case providers.ActionText:
			return e.succeed(task, action.Text)

		case providers.ActionToolCall:
			call := models.ToolCall{ID: action.CallID, Name: action.Name, Input: action.Args}
			if call.ID == "" {
				call.ID = uuid.NewString()
			}
			e.logEvent("task %d: dispatching tool %s (iteration %d)", task.ID, call.Name, iteration)

			result := e.Registry.Dispatch(ctx, call.Name, call.Input)
			history = provider.AppendToolResult(history, call, toolResultText(result), result.OK)
			continue

		default:
			return e.fail(task, fmt.Sprintf("provider returned an unrecognized action kind %d", action.Kind))
		}
	}

	limitErr := &IterationLimitError{TaskID: task.ID, Iterations: e.maxIterations}
	finalTask, _ := e.fail(task, "maximum iterations exceeded")
	return finalTask, limitErr
}

func toolResultText(result tools.Result) string {
	if result.OK {
		return result.Output
	}
	return result.Error
}

func composePrompt(task models.Task) string {
	if strings.TrimSpace(task.Description) == "" {
		return task.Title
	}
	return task.Title + "\n\n" + task.Description
}

func (e *Executor) mirrorExchange(providerName string, exchange providers.Exchange) error {
	if len(exchange.Request) == 0 && len(exchange.Response) == 0 {
		return nil
	}
	return e.Store.AppendAPIResponse(struct {
		Provider string          `json:"provider"`
		Request  json.RawMessage `json:"request"`
		Response json.RawMessage `json:"response"`
	}{Provider: providerName, Request: exchange.Request, Response: exchange.Response})
}

// succeed transitions task to Done, keeps the agent assigned, and sets
// comment as the final user-visible outcome.
func (e *Executor) succeed(task models.Task, comment string) (models.Task, error) {
	var final models.Task
	err := e.Store.MutateTasks(func(b *models.Board) error {
		t, err := board.FindTask(b, task.ID)
		if err != nil {
			return err
		}
		t.Status = models.StatusDone
		t.Comment = comment
		final = *t
		return nil
	})
	if err != nil {
		return task, err
	}
	e.logEvent("task %d: completed successfully", task.ID)
	return final, nil
}

// fail transitions task back to ToDo, unassigns the agent, and records
// comment as the failure reason.
func (e *Executor) fail(task models.Task, comment string) (models.Task, error) {
	var final models.Task
	err := e.Store.MutateTasks(func(b *models.Board) error {
		t, err := board.FindTask(b, task.ID)
		if err != nil {
			return err
		}
		t.Status = models.StatusToDo
		t.AgentID = nil
		t.Comment = comment
		final = *t
		return nil
	})
	if err != nil {
		return task, err
	}
	e.logEvent("task %d: failed: %s", task.ID, comment)
	return final, nil
}

func (e *Executor) logEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.Logger.Info(msg)
	if err := e.Store.AppendLog(msg); err != nil {
		e.Logger.Warn("failed to append logs.log entry", "error", err)
	}
}
