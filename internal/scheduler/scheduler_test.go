package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/pkg/models"
)

type fakeRunner struct {
	mu      sync.Mutex
	seen    []int
	release chan struct{}
	started atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, task models.Task) (models.Task, error) {
	f.started.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.seen = append(f.seen, task.ID)
	f.mu.Unlock()
	task.Status = models.StatusDone
	return task, nil
}

func setupStore(t *testing.T) *board.Store {
	t.Helper()
	store, err := board.Init(t.TempDir())
	if err != nil {
		t.Fatalf("board.Init() error = %v", err)
	}
	return store
}

func addAgentWithTasks(t *testing.T, store *board.Store, taskTitles []string, statuses []models.TaskStatus) int {
	t.Helper()
	var agentID int
	if err := store.MutateAgents(func(ab *models.AgentBoard) error {
		id, err := board.NextAgentID(ab)
		if err != nil {
			return err
		}
		agentID = id
		ab.Agents = append(ab.Agents, models.Agent{ID: id, Model: "gemini-2.0-flash"})
		return nil
	}); err != nil {
		t.Fatalf("MutateAgents() error = %v", err)
	}

	if err := store.MutateTasks(func(b *models.Board) error {
		for i, title := range taskTitles {
			id, err := board.NextTaskID(b)
			if err != nil {
				return err
			}
			b.Tasks = append(b.Tasks, models.Task{ID: id, Title: title, Status: statuses[i], AgentID: &agentID})
		}
		return nil
	}); err != nil {
		t.Fatalf("MutateTasks() error = %v", err)
	}
	return agentID
}

func TestDueTasksFiltersDoneAndOrdersByID(t *testing.T) {
	store := setupStore(t)
	agentID := addAgentWithTasks(t, store,
		[]string{"c", "a", "b"},
		[]models.TaskStatus{models.StatusToDo, models.StatusDone, models.StatusInProgress},
	)

	s := New(store, &fakeRunner{}, 0, nil)
	tasks, err := s.dueTasks(agentID)
	if err != nil {
		t.Fatalf("dueTasks() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].ID >= tasks[1].ID {
		t.Fatalf("tasks not in ascending ID order: %+v", tasks)
	}
	for _, task := range tasks {
		if task.Status == models.StatusDone {
			t.Fatalf("Done task leaked into dueTasks(): %+v", task)
		}
	}
}

func TestTriggerRunsAllTasksForAgentConcurrently(t *testing.T) {
	store := setupStore(t)
	agentID := addAgentWithTasks(t, store,
		[]string{"one", "two", "three"},
		[]models.TaskStatus{models.StatusToDo, models.StatusToDo, models.StatusToDo},
	)

	release := make(chan struct{})
	runner := &fakeRunner{release: release}
	s := New(store, runner, 0, nil)
	done := make(chan struct{})
	go func() {
		s.trigger(agentID, models.ScheduleEntry{Cron: "0 0 * * * *"})
		close(done)
	}()

	// Every run blocks until released, so all three can only have started
	// if trigger runs them at the same time.
	deadline := time.Now().Add(time.Second)
	for runner.started.Load() < 3 {
		if time.Now().After(deadline) {
			close(release)
			t.Fatalf("only %d of 3 runs started concurrently", runner.started.Load())
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-done

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.seen) != 3 {
		t.Fatalf("runner ran %d tasks, want 3", len(runner.seen))
	}
}

func TestTriggerRemovesOnceScheduleBeforeTasksComplete(t *testing.T) {
	store := setupStore(t)
	agentID := addAgentWithTasks(t, store, []string{"slow"}, []models.TaskStatus{models.StatusToDo})

	if err := store.MutateSchedules(func(schedules models.Schedules) error {
		schedules["1"] = models.ScheduleEntry{Cron: "0 0 * * * *", Once: true}
		return nil
	}); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	release := make(chan struct{})
	runner := &fakeRunner{release: release}
	s := New(store, runner, 0, nil)

	var removedBeforeCompletion atomic.Bool
	done := make(chan struct{})
	go func() {
		s.trigger(agentID, models.ScheduleEntry{Cron: "0 0 * * * *", Once: true})
		close(done)
	}()

	// Give trigger time to perform the removal before the task unblocks.
	time.Sleep(20 * time.Millisecond)
	schedules, err := store.LoadSchedules()
	if err != nil {
		t.Fatalf("LoadSchedules() error = %v", err)
	}
	if _, exists := schedules["1"]; !exists {
		removedBeforeCompletion.Store(true)
	}

	close(release)
	<-done

	if !removedBeforeCompletion.Load() {
		t.Fatalf("expected schedule to be removed before the in-flight task completed")
	}
}
