package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/dto"
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/contract"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"
	"github.com/kunaldev758/chataffy-sub000/internal/state"

	"github.com/google/uuid"
)

// Executor performs the actual external completion call for one task.
type Executor interface {
	Execute(ctx context.Context, task *entity.QueuedTask) (*entity.TaskResult, error)
}

// Options tune admission and polling behavior.
type Options struct {
	MaxPerWindow int           // admitted calls per rolling window (default 40)
	Span         time.Duration // rolling window length (default 60s)
	Tick         time.Duration // dispatch loop cadence (default 250ms)
	AwaitPoll    time.Duration // Await polling interval (default 100ms)
	EntryTTL     time.Duration // state-store retention for task entries
	Retention    time.Duration // terminal rows kept before GC (default 24h)
	GCInterval   time.Duration // terminal-row GC cadence (default 1h)
}

func (o *Options) withDefaults() {
	if o.MaxPerWindow <= 0 {
		o.MaxPerWindow = 40
	}
	if o.Span <= 0 {
		o.Span = 60 * time.Second
	}
	if o.Tick <= 0 {
		o.Tick = 250 * time.Millisecond
	}
	if o.AwaitPoll <= 0 {
		o.AwaitPoll = 100 * time.Millisecond
	}
	if o.EntryTTL <= 0 {
		o.EntryTTL = time.Hour
	}
	if o.Retention <= 0 {
		o.Retention = 24 * time.Hour
	}
	if o.GCInterval <= 0 {
		o.GCInterval = time.Hour
	}
}

// Queue serializes external completion calls under a provider rate
// limit. Producers submit tasks and await results; the dispatch loop
// admits up to the window capacity per tick and executes admitted tasks
// concurrently.
type Queue struct {
	repo     contract.QueuedTaskRepository
	store    state.Store
	executor Executor
	window   *Window
	clock    Clock
	logger   logger.ILogger
	usage    logger.ILogger
	opts     Options

	inFlight sync.WaitGroup
}

// NewQueue wires the dispatch loop. Operational logs go to log; usageLog
// receives only the per-task token-usage entries (billing audit trail).
func NewQueue(
	repo contract.QueuedTaskRepository,
	store state.Store,
	executor Executor,
	clock Clock,
	log logger.ILogger,
	usageLog logger.ILogger,
	opts Options,
) *Queue {
	opts.withDefaults()
	return &Queue{
		repo:     repo,
		store:    store,
		executor: executor,
		window:   NewWindow(opts.Span),
		clock:    clock,
		logger:   log,
		usage:    usageLog,
		opts:     opts,
	}
}

// Submit persists a Pending task and registers its status entry. The
// dispatch loop picks it up on its next tick.
func (q *Queue) Submit(ctx context.Context, tenantId uuid.UUID, kind entity.TaskKind, payload entity.TaskPayload) (uuid.UUID, error) {
	task := &entity.QueuedTask{
		Id:        uuid.New(),
		TenantId:  tenantId,
		Kind:      kind,
		Payload:   payload,
		Status:    entity.TaskStatusPending,
		CreatedAt: q.clock.Now(),
	}
	if err := q.repo.Create(ctx, task); err != nil {
		return uuid.Nil, err
	}

	entry := &state.TaskEntry{Status: string(entity.TaskStatusPending)}
	if err := q.store.SetTaskEntry(ctx, task.Id.String(), entry, q.opts.EntryTTL); err != nil {
		q.logger.Warn("TaskQueue", "Failed to register task entry", map[string]interface{}{
			"task_id": task.Id.String(),
			"error":   err.Error(),
		})
	}
	return task.Id, nil
}

// Await polls the task's status entry until it turns terminal. The
// caller bounds it with a context deadline; on timeout the task stays
// Pending/Processing server-side (no cancel API).
func (q *Queue) Await(ctx context.Context, taskId uuid.UUID) (*entity.TaskResult, error) {
	ticker := time.NewTicker(q.opts.AwaitPoll)
	defer ticker.Stop()

	for {
		entry, found, err := q.store.GetTaskEntry(ctx, taskId.String())
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &dto.TaskNotFoundError{TaskId: taskId}
		}

		switch entity.TaskStatus(entry.Status) {
		case entity.TaskStatusResolved:
			return q.resolvedResult(ctx, taskId, entry)
		case entity.TaskStatusRejected:
			return nil, &CompletionError{TaskId: taskId, Reason: entry.Error}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// resolvedResult prefers the persisted row (full token usage); the
// status entry text is the fallback if the row was garbage-collected.
func (q *Queue) resolvedResult(ctx context.Context, taskId uuid.UUID, entry *state.TaskEntry) (*entity.TaskResult, error) {
	task, err := q.repo.FindOne(ctx, specification.ByID{ID: taskId})
	if err == nil && task != nil && task.Result != nil {
		return task.Result, nil
	}
	return &entity.TaskResult{Text: entry.Text}, nil
}

// Run drives the dispatch loop until ctx is cancelled, then waits for
// in-flight calls to settle.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.opts.Tick)
	defer ticker.Stop()
	gcTicker := time.NewTicker(q.opts.GCInterval)
	defer gcTicker.Stop()

	q.logger.Info("TaskQueue", "Dispatch loop started", map[string]interface{}{
		"max_per_window": q.opts.MaxPerWindow,
		"window_seconds": q.opts.Span.Seconds(),
	})

	for {
		select {
		case <-ctx.Done():
			q.inFlight.Wait()
			q.logger.Info("TaskQueue", "Dispatch loop stopped", nil)
			return
		case <-ticker.C:
			q.Dispatch(ctx)
		case <-gcTicker.C:
			q.gc(ctx)
		}
	}
}

// gc drops terminal task rows past the retention period. Their token
// usage already lives in the usage log, so the rows carry nothing the
// system still needs.
func (q *Queue) gc(ctx context.Context) {
	cutoff := q.clock.Now().Add(-q.opts.Retention)
	n, err := q.repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		q.logger.Error("TaskQueue", "Failed to delete old terminal tasks", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if n > 0 {
		q.logger.Info("TaskQueue", "Deleted old terminal tasks", map[string]interface{}{
			"count": n,
		})
	}
}

// Dispatch runs one admission round: compute remaining window capacity,
// claim that many oldest Pending tasks, and execute them concurrently.
func (q *Queue) Dispatch(ctx context.Context) {
	now := q.clock.Now()
	capacity := q.opts.MaxPerWindow - q.window.Count(now)
	if capacity <= 0 {
		return
	}

	tasks, err := q.repo.FindPending(ctx, capacity)
	if err != nil {
		q.logger.Error("TaskQueue", "Failed to fetch pending tasks", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, task := range tasks {
		claimed, err := q.repo.MarkProcessing(ctx, task.Id, now)
		if err != nil {
			q.logger.Error("TaskQueue", "Failed to mark task processing", map[string]interface{}{
				"task_id": task.Id.String(),
				"error":   err.Error(),
			})
			continue
		}
		if !claimed {
			continue
		}

		q.window.Add(task.Id, now)
		q.setEntry(ctx, task.Id, &state.TaskEntry{Status: string(entity.TaskStatusProcessing)})

		q.inFlight.Add(1)
		go q.execute(ctx, task)
	}
}

func (q *Queue) execute(ctx context.Context, task *entity.QueuedTask) {
	defer q.inFlight.Done()

	result, err := q.executor.Execute(ctx, task)
	completedAt := q.clock.Now()
	q.window.Complete(task.Id, completedAt)

	if err != nil {
		if repoErr := q.repo.Reject(ctx, task.Id, err.Error(), completedAt); repoErr != nil {
			q.logger.Error("TaskQueue", "Failed to persist rejection", map[string]interface{}{
				"task_id": task.Id.String(),
				"error":   repoErr.Error(),
			})
		}
		q.setEntry(ctx, task.Id, &state.TaskEntry{
			Status: string(entity.TaskStatusRejected),
			Error:  err.Error(),
		})
		q.logger.Warn("TaskQueue", "Task rejected", map[string]interface{}{
			"task_id": task.Id.String(),
			"kind":    string(task.Kind),
			"error":   err.Error(),
		})
		return
	}

	if repoErr := q.repo.Resolve(ctx, task.Id, result, completedAt); repoErr != nil {
		q.logger.Error("TaskQueue", "Failed to persist result", map[string]interface{}{
			"task_id": task.Id.String(),
			"error":   repoErr.Error(),
		})
	}
	q.setEntry(ctx, task.Id, &state.TaskEntry{
		Status: string(entity.TaskStatusResolved),
		Text:   result.Text,
	})

	// Token usage feeds billing; keep it out of the operational log.
	q.usage.Info("Usage", "Task resolved", map[string]interface{}{
		"task_id":           task.Id.String(),
		"tenant_id":         task.TenantId.String(),
		"kind":              string(task.Kind),
		"prompt_tokens":     result.PromptTokens,
		"completion_tokens": result.CompletionTokens,
	})
}

func (q *Queue) setEntry(ctx context.Context, taskId uuid.UUID, entry *state.TaskEntry) {
	if err := q.store.SetTaskEntry(ctx, taskId.String(), entry, q.opts.EntryTTL); err != nil {
		q.logger.Warn("TaskQueue", "Failed to update task entry", map[string]interface{}{
			"task_id": taskId.String(),
			"error":   err.Error(),
		})
	}
}
