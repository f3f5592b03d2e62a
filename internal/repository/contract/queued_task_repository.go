package contract

import (
	"context"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type QueuedTaskRepository interface {
	Create(ctx context.Context, task *entity.QueuedTask) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueuedTask, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueuedTask, error)

	// FindPending returns up to limit Pending tasks, oldest-created-first.
	FindPending(ctx context.Context, limit int) ([]*entity.QueuedTask, error)

	// MarkProcessing conditionally flips a Pending task to Processing and
	// stamps its dispatch time. Returns false if the task was not Pending.
	MarkProcessing(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) (bool, error)

	// Resolve stores the result and marks the task Resolved.
	Resolve(ctx context.Context, id uuid.UUID, result *entity.TaskResult, completedAt time.Time) error

	// Reject stores the failure reason and marks the task Rejected.
	Reject(ctx context.Context, id uuid.UUID, reason string, completedAt time.Time) error

	// DeleteTerminalBefore garbage-collects Resolved/Rejected tasks older
	// than the cutoff.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
