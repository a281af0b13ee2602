package executor

import "fmt"

// IterationLimitError reports that an agent's reason/act loop exceeded
// MaxIterations without reaching a terminal Text action.
type IterationLimitError struct {
	TaskID     int
	Iterations int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("task %d: maximum iterations exceeded (%d)", e.TaskID, e.Iterations)
}

// UnassignedError reports that a task has no agent to execute it.
type UnassignedError struct {
	TaskID int
}

func (e *UnassignedError) Error() string {
	return fmt.Sprintf("task %d: no agent assigned", e.TaskID)
}
