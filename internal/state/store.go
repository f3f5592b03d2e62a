package state

import (
	"context"
	"time"
)

// TaskEntry mirrors a queued task's terminal outcome for cheap polling.
// The database row stays authoritative; this is the hot read path.
type TaskEntry struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Store is the shared coordination surface of the engine: per-tenant busy
// flags for ingestion cycles and task outcome entries for Await polling.
// The memory implementation serves a single process; the redis one lets
// several engine instances share flags.
type Store interface {
	// TryAcquireBusy sets the tenant's busy flag if it is not already set.
	// Returns false when another cycle holds it. The ttl bounds how long a
	// crashed holder can wedge the tenant.
	TryAcquireBusy(ctx context.Context, tenantId string, ttl time.Duration) (bool, error)
	ReleaseBusy(ctx context.Context, tenantId string) error
	IsBusy(ctx context.Context, tenantId string) (bool, error)

	SetTaskEntry(ctx context.Context, taskId string, entry *TaskEntry, ttl time.Duration) error
	GetTaskEntry(ctx context.Context, taskId string) (*TaskEntry, bool, error)
}
