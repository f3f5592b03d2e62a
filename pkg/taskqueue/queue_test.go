package taskqueue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"
	"github.com/kunaldev758/chataffy-sub000/internal/state/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test doubles ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*entity.QueuedTask
	order []uuid.UUID
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*entity.QueuedTask)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entity.QueuedTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *task
	r.tasks[task.Id] = &cp
	r.order = append(r.order, task.Id)
	return nil
}

func (r *fakeTaskRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueuedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range specs {
		if byId, ok := s.(specification.ByID); ok {
			if t, found := r.tasks[byId.ID]; found {
				cp := *t
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueuedTask, error) {
	return nil, nil
}

func (r *fakeTaskRepo) FindPending(ctx context.Context, limit int) ([]*entity.QueuedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*entity.QueuedTask
	for _, id := range r.order {
		if len(pending) >= limit {
			break
		}
		if t := r.tasks[id]; t.Status == entity.TaskStatusPending {
			cp := *t
			pending = append(pending, &cp)
		}
	}
	return pending, nil
}

func (r *fakeTaskRepo) MarkProcessing(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, found := r.tasks[id]
	if !found || t.Status != entity.TaskStatusPending {
		return false, nil
	}
	t.Status = entity.TaskStatusProcessing
	d := dispatchedAt
	t.DispatchedAt = &d
	return true, nil
}

func (r *fakeTaskRepo) Resolve(ctx context.Context, id uuid.UUID, result *entity.TaskResult, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[id]
	t.Status = entity.TaskStatusResolved
	t.Result = result
	c := completedAt
	t.CompletedAt = &c
	return nil
}

func (r *fakeTaskRepo) Reject(ctx context.Context, id uuid.UUID, reason string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[id]
	t.Status = entity.TaskStatusRejected
	t.Error = &reason
	c := completedAt
	t.CompletedAt = &c
	return nil
}

func (r *fakeTaskRepo) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []uuid.UUID
	var deleted int64
	for _, id := range r.order {
		t := r.tasks[id]
		terminal := t.Status == entity.TaskStatusResolved || t.Status == entity.TaskStatusRejected
		if terminal && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(r.tasks, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return deleted, nil
}

func (r *fakeTaskRepo) countByStatus(status entity.TaskStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

func (r *fakeTaskRepo) dispatchTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	var times []time.Time
	for _, t := range r.tasks {
		if t.DispatchedAt != nil {
			times = append(times, *t.DispatchedAt)
		}
	}
	return times
}

type recordedEntry struct {
	module  string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (l *recordingLogger) record(module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedEntry{module, message, details})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.record(module, message, details)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.record(module, message, details)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.record(module, message, details)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.record(module, message, details)
}

func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) all() []recordedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedEntry(nil), l.entries...)
}

type instantExecutor struct{}

func (instantExecutor) Execute(ctx context.Context, task *entity.QueuedTask) (*entity.TaskResult, error) {
	return &entity.TaskResult{Text: "ok", PromptTokens: 10, CompletionTokens: 5}, nil
}

type failingExecutor struct{}

func (failingExecutor) Execute(ctx context.Context, task *entity.QueuedTask) (*entity.TaskResult, error) {
	return nil, errors.New("upstream rate limited")
}

type slowExecutor struct {
	delay time.Duration
}

func (e slowExecutor) Execute(ctx context.Context, task *entity.QueuedTask) (*entity.TaskResult, error) {
	time.Sleep(e.delay)
	return &entity.TaskResult{Text: "ok"}, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestQueue(repo *fakeTaskRepo, clock Clock, exec Executor, opts Options) *Queue {
	if opts.AwaitPoll == 0 {
		opts.AwaitPoll = time.Millisecond
	}
	return NewQueue(repo, memory.NewStore(), exec, clock, nopLogger{}, nopLogger{}, opts)
}

// --- tests ---

func TestBurstRespectsWindowCapacity(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	clock := newFakeClock()
	q := newTestQueue(repo, clock, instantExecutor{}, Options{MaxPerWindow: 40, Span: 60 * time.Second})

	for i := 0; i < 45; i++ {
		_, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
		require.NoError(t, err)
	}

	// First round admits exactly the window capacity.
	q.Dispatch(ctx)
	assert.Eventually(t, func() bool {
		return repo.countByStatus(entity.TaskStatusResolved) == 40
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, repo.countByStatus(entity.TaskStatusPending))

	// Mid-window the slots are still occupied.
	clock.Advance(30 * time.Second)
	q.Dispatch(ctx)
	assert.Equal(t, 5, repo.countByStatus(entity.TaskStatusPending))

	// Past the window the remainder is admitted.
	clock.Advance(31 * time.Second)
	q.Dispatch(ctx)
	assert.Eventually(t, func() bool {
		return repo.countByStatus(entity.TaskStatusResolved) == 45
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRollingWindowNeverOveradmits(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	clock := newFakeClock()
	q := newTestQueue(repo, clock, instantExecutor{}, Options{MaxPerWindow: 40, Span: 60 * time.Second})

	for i := 0; i < 100; i++ {
		_, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
		require.NoError(t, err)
	}

	// Drive the loop on a 5s synthetic cadence until everything resolves.
	for step := 0; step < 60; step++ {
		q.Dispatch(ctx)
		assert.Eventually(t, func() bool {
			return repo.countByStatus(entity.TaskStatusProcessing) == 0
		}, 2*time.Second, time.Millisecond)
		if repo.countByStatus(entity.TaskStatusResolved) == 100 {
			break
		}
		clock.Advance(5 * time.Second)
	}
	require.Equal(t, 100, repo.countByStatus(entity.TaskStatusResolved))

	// No rolling 60s window may contain more than 40 admissions.
	times := repo.dispatchTimes()
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := range times {
		inWindow := 0
		for j := i; j < len(times); j++ {
			if times[j].Sub(times[i]) < 60*time.Second {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, 40)
	}
}

func TestAwaitReturnsResolvedResult(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	q := newTestQueue(repo, newFakeClock(), instantExecutor{}, Options{MaxPerWindow: 10, Span: 60 * time.Second})

	id, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)

	q.Dispatch(ctx)

	awaitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	result, err := q.Await(awaitCtx, id)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
	assert.Equal(t, 10, result.PromptTokens)
	assert.Equal(t, 5, result.CompletionTokens)
}

func TestAwaitSurfacesRejection(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	q := newTestQueue(repo, newFakeClock(), failingExecutor{}, Options{MaxPerWindow: 10, Span: 60 * time.Second})

	id, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)

	q.Dispatch(ctx)

	awaitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = q.Await(awaitCtx, id)
	require.Error(t, err)

	var ce *CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "rate limited")
}

func TestAwaitUnknownTask(t *testing.T) {
	repo := newFakeTaskRepo()
	q := newTestQueue(repo, newFakeClock(), instantExecutor{}, Options{})

	_, err := q.Await(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAwaitHonorsCallerTimeout(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	// Never dispatched, so the task stays Pending forever.
	q := newTestQueue(repo, newFakeClock(), instantExecutor{}, Options{})

	id, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)

	awaitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = q.Await(awaitCtx, id)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGCDropsOldTerminalTasks(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	clock := newFakeClock()
	q := newTestQueue(repo, clock, instantExecutor{}, Options{
		MaxPerWindow: 10,
		Span:         60 * time.Second,
		Retention:    24 * time.Hour,
	})

	_, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)
	q.Dispatch(ctx)
	require.Eventually(t, func() bool {
		return repo.countByStatus(entity.TaskStatusResolved) == 1
	}, 2*time.Second, time.Millisecond)

	// Inside the retention period the row survives.
	clock.Advance(time.Hour)
	q.gc(ctx)
	assert.Equal(t, 1, repo.countByStatus(entity.TaskStatusResolved))

	// A task that never dispatched must not be collected, however old.
	_, err = q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	q.gc(ctx)
	assert.Equal(t, 0, repo.countByStatus(entity.TaskStatusResolved))
	assert.Equal(t, 1, repo.countByStatus(entity.TaskStatusPending))
}

func TestRunWaitsForInFlightOnCancel(t *testing.T) {
	repo := newFakeTaskRepo()
	q := newTestQueue(repo, NewRealClock(), slowExecutor{delay: 50 * time.Millisecond}, Options{
		MaxPerWindow: 10,
		Span:         60 * time.Second,
		Tick:         5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()

	_, err := q.Submit(context.Background(), uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return repo.countByStatus(entity.TaskStatusProcessing) == 1
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Run only returns once the in-flight call settled.
	assert.Equal(t, 1, repo.countByStatus(entity.TaskStatusResolved))
}

func TestTokenUsageGoesToUsageLogger(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	ops := &recordingLogger{}
	usage := &recordingLogger{}
	q := NewQueue(repo, memory.NewStore(), instantExecutor{}, newFakeClock(), ops, usage, Options{
		MaxPerWindow: 10,
		Span:         60 * time.Second,
		AwaitPoll:    time.Millisecond,
	})

	_, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
	require.NoError(t, err)
	q.Dispatch(ctx)

	require.Eventually(t, func() bool {
		return len(usage.all()) == 1
	}, 2*time.Second, time.Millisecond)

	entry := usage.all()[0]
	assert.Equal(t, "Usage", entry.module)
	assert.Equal(t, 10, entry.details["prompt_tokens"])
	assert.Equal(t, 5, entry.details["completion_tokens"])

	// The operational log must stay free of billing data.
	for _, e := range ops.all() {
		assert.NotContains(t, e.details, "prompt_tokens")
	}
}

func TestOldestPendingAdmittedFirst(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	clock := newFakeClock()
	q := newTestQueue(repo, clock, instantExecutor{}, Options{MaxPerWindow: 2, Span: 60 * time.Second})

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		id, err := q.Submit(ctx, uuid.New(), entity.TaskKindAnswer, entity.TaskPayload{UserPrompt: "q"})
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Millisecond)
	}

	q.Dispatch(ctx)
	assert.Eventually(t, func() bool {
		return repo.countByStatus(entity.TaskStatusResolved) == 2
	}, 2*time.Second, time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, entity.TaskStatusResolved, repo.tasks[ids[0]].Status)
	assert.Equal(t, entity.TaskStatusResolved, repo.tasks[ids[1]].Status)
	assert.Equal(t, entity.TaskStatusPending, repo.tasks[ids[2]].Status)
	assert.Equal(t, entity.TaskStatusPending, repo.tasks[ids[3]].Status)
}
