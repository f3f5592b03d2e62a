package taskqueue

import (
	"fmt"

	"github.com/google/uuid"
)

// CompletionError is returned by Await when the external call behind a
// task failed (including provider rate-limit responses).
type CompletionError struct {
	TaskId uuid.UUID
	Reason string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("task %s rejected: %s", e.TaskId, e.Reason)
}
