package dto

import (
	"fmt"

	"github.com/google/uuid"
)

// TaskNotFoundError is raised when awaiting a task the queue does not
// know about (never submitted, or its status entry expired).
type TaskNotFoundError struct {
	TaskId uuid.UUID
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskId)
}
