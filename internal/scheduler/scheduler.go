// Package scheduler drives agents on a wall-clock timetable: each
// schedule entry maps an agent ID to a six-field (seconds-enabled) cron
// expression and timezone. On every trigger, all of that agent's
// non-Done tasks are run concurrently through the executor.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/pkg/models"
)

// DefaultTimezone is applied to a schedule entry whose Timezone field is
// empty, matching the fixed default named for the system's example
// schedules.
const DefaultTimezone = "America/New_York"

// Runner executes one task end to end. *executor.Executor satisfies
// this; it is narrowed to an interface here so the scheduler can be
// tested without constructing a real Board Store and tool registry.
type Runner interface {
	Run(ctx context.Context, task models.Task) (models.Task, error)
}

// Scheduler wraps a robfig/cron engine, registering one entry per
// schedule in schedules.json and re-reading the file on Start so
// externally-made edits (via the CLI's `agent schedule` verbs) take
// effect on the next restart.
type Scheduler struct {
	store          *board.Store
	runner         Runner
	logger         *slog.Logger
	defaultTimeout time.Duration

	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// New returns a Scheduler wired to store and runner, logging to logger
// (or slog.Default() when nil). defaultTimeout bounds each triggered
// run's context; a value <= 0 means runs are given no deadline.
func New(store *board.Store, runner Runner, defaultTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:          store,
		runner:         runner,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		cron:           cron.New(cron.WithSeconds()),
	}
}

// Start loads schedules.json, registers one cron entry per agent, and
// blocks until ctx is cancelled. On cancellation it stops accepting new
// triggers and waits for in-flight runs (those already spawned by a
// trigger that fired before cancellation) to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.reload(); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Minute):
		s.logger.Warn("scheduler: in-flight runs did not finish within the soft deadline")
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
	return nil
}

// reload reads schedules.json and registers one cron.Entry per agent.
func (s *Scheduler) reload() error {
	schedules, err := s.store.LoadSchedules()
	if err != nil {
		return fmt.Errorf("scheduler: load schedules: %w", err)
	}

	for agentIDStr, entry := range schedules {
		agentID, err := strconv.Atoi(agentIDStr)
		if err != nil {
			s.logger.Warn("scheduler: skipping malformed schedule key", "key", agentIDStr)
			continue
		}
		tz := entry.Timezone
		if tz == "" {
			tz = DefaultTimezone
		}
		spec := fmt.Sprintf("CRON_TZ=%s %s", tz, entry.Cron)

		entry := entry // capture per-iteration copy for the closure below
		var id cron.EntryID
		id, err = s.cron.AddFunc(spec, func() {
			if entry.Once {
				s.cron.Remove(id)
			}
			s.trigger(agentID, entry)
		})
		if err != nil {
			s.logger.Error("scheduler: invalid cron expression, skipping agent", "agent_id", agentID, "cron", entry.Cron, "error", err)
			continue
		}
		s.logger.Info("scheduler: registered schedule", "agent_id", agentID, "cron", entry.Cron, "tz", tz, "entry_id", id)
	}
	return nil
}

// trigger runs at the scheduled time for agentID: it loads the agent's
// non-Done tasks in ascending ID order, spawns one Runner per task
// concurrently, awaits them all, and — for a `once` entry — removes the
// schedule before the await completes, per the concurrency contract.
func (s *Scheduler) trigger(agentID int, entry models.ScheduleEntry) {
	ctx := context.Background()
	if s.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaultTimeout)
		defer cancel()
	}

	if entry.Once {
		if err := s.removeSchedule(agentID); err != nil {
			s.logger.Error("scheduler: failed to remove one-shot schedule", "agent_id", agentID, "error", err)
		}
	}

	tasks, err := s.dueTasks(agentID)
	if err != nil {
		s.logger.Error("scheduler: failed to load tasks for agent", "agent_id", agentID, "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t models.Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("scheduler: executor panicked", "agent_id", agentID, "task_id", t.ID, "panic", r)
				}
			}()
			if _, err := s.runner.Run(ctx, t); err != nil {
				s.logger.Warn("scheduler: task execution ended with an error", "agent_id", agentID, "task_id", t.ID, "error", err)
			}
		}(task)
	}
	wg.Wait()
}

// dueTasks returns agentID's non-Done tasks in ascending ID order.
func (s *Scheduler) dueTasks(agentID int) ([]models.Task, error) {
	snapshot, err := s.store.LoadTasks()
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	for _, t := range snapshot.Tasks {
		if t.AgentID != nil && *t.AgentID == agentID && t.Status != models.StatusDone {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (s *Scheduler) removeSchedule(agentID int) error {
	key := strconv.Itoa(agentID)
	return s.store.MutateSchedules(func(schedules models.Schedules) error {
		delete(schedules, key)
		return nil
	})
}
