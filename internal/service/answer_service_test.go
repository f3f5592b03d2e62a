package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/constant"
	"github.com/kunaldev758/chataffy-sub000/internal/dto"
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"
	"github.com/kunaldev758/chataffy-sub000/internal/state/memory"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/history"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/retriever"
	"github.com/kunaldev758/chataffy-sub000/pkg/taskqueue"
	"github.com/kunaldev758/chataffy-sub000/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepo struct {
	mu  sync.Mutex
	cfg *entity.TenantConfig
}

func (r *fakeConfigRepo) FindByTenant(ctx context.Context, tenantId uuid.UUID) (*entity.TenantConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg, nil
}

func (r *fakeConfigRepo) Upsert(ctx context.Context, config *entity.TenantConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = config
	return nil
}

type fakeTurnRepo struct {
	mu    sync.Mutex
	turns []*entity.ConversationTurn
}

func (r *fakeTurnRepo) Create(ctx context.Context, turn *entity.ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *turn
	r.turns = append(r.turns, &c)
	return nil
}

func (r *fakeTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ConversationTurn(nil), r.turns...), nil
}

func (r *fakeTurnRepo) FindRecent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.ConversationTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.ConversationTurn
	for i := len(r.turns) - 1; i >= 0 && len(matched) < limit; i-- {
		if r.turns[i].ConversationId == conversationId {
			matched = append(matched, r.turns[i])
		}
	}
	return matched, nil
}

func (r *fakeTurnRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns)
}

type fakeQueueTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*entity.QueuedTask
	order []uuid.UUID
}

func newFakeQueueTaskRepo() *fakeQueueTaskRepo {
	return &fakeQueueTaskRepo{tasks: make(map[uuid.UUID]*entity.QueuedTask)}
}

func (r *fakeQueueTaskRepo) Create(ctx context.Context, task *entity.QueuedTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *task
	r.tasks[task.Id] = &c
	r.order = append(r.order, task.Id)
	return nil
}

func (r *fakeQueueTaskRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueuedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if task, found := r.tasks[byId.ID]; found {
				c := *task
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeQueueTaskRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueuedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.QueuedTask
	for _, id := range r.order {
		if task, ok := r.tasks[id]; ok {
			c := *task
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeQueueTaskRepo) FindPending(ctx context.Context, limit int) ([]*entity.QueuedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.QueuedTask
	for _, id := range r.order {
		task, ok := r.tasks[id]
		if !ok || task.Status != entity.TaskStatusPending {
			continue
		}
		c := *task
		out = append(out, &c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeQueueTaskRepo) MarkProcessing(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != entity.TaskStatusPending {
		return false, nil
	}
	task.Status = entity.TaskStatusProcessing
	task.DispatchedAt = &dispatchedAt
	return true, nil
}

func (r *fakeQueueTaskRepo) Resolve(ctx context.Context, id uuid.UUID, result *entity.TaskResult, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		task.Status = entity.TaskStatusResolved
		task.Result = result
		task.CompletedAt = &completedAt
	}
	return nil
}

func (r *fakeQueueTaskRepo) Reject(ctx context.Context, id uuid.UUID, reason string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		task.Status = entity.TaskStatusRejected
		task.Error = &reason
		task.CompletedAt = &completedAt
	}
	return nil
}

func (r *fakeQueueTaskRepo) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type scriptedExecutor struct {
	mu    sync.Mutex
	fail  bool
	tasks []*entity.QueuedTask
}

func (e *scriptedExecutor) Execute(ctx context.Context, task *entity.QueuedTask) (*entity.TaskResult, error) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	if e.fail {
		return nil, fmt.Errorf("provider unavailable")
	}
	return &entity.TaskResult{
		Text:             "reply:" + string(task.Kind),
		PromptTokens:     12,
		CompletionTokens: 34,
	}, nil
}

func (e *scriptedExecutor) executed() []*entity.QueuedTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*entity.QueuedTask(nil), e.tasks...)
}

type answerFixture struct {
	svc      IAnswerService
	index    *fakeIndex
	executor *scriptedExecutor
	turnRepo *fakeTurnRepo
	config   *fakeConfigRepo
	tenantId uuid.UUID
	cancel   context.CancelFunc
}

func newAnswerFixture(t *testing.T) *answerFixture {
	t.Helper()

	index := &fakeIndex{}
	executor := &scriptedExecutor{}
	turnRepo := &fakeTurnRepo{}
	configRepo := &fakeConfigRepo{}
	factory := &fakeFactory{uow: &fakeUnitOfWork{
		itemRepo:   newFakeItemRepo(),
		quotaRepo:  &fakeQuotaRepo{limit: 1 << 30},
		configRepo: configRepo,
		turnRepo:   turnRepo,
	}}

	queue := taskqueue.NewQueue(
		newFakeQueueTaskRepo(),
		memory.NewStore(),
		executor,
		taskqueue.NewRealClock(),
		nopLogger{},
		nopLogger{},
		taskqueue.Options{Tick: time.Millisecond, AwaitPoll: time.Millisecond},
	)

	ctx, cancel := context.WithCancel(context.Background())
	go queue.Run(ctx)
	t.Cleanup(cancel)

	svc := NewAnswerService(
		factory,
		queue,
		retriever.NewRetriever(fixedEmbedProvider{}, index, "tenant_passages", 5, 0.15, 0.2),
		history.NewLoader(factory, 10),
		0.3,
		0.4,
		nopLogger{},
	)

	return &answerFixture{
		svc:      svc,
		index:    index,
		executor: executor,
		turnRepo: turnRepo,
		config:   configRepo,
		tenantId: uuid.New(),
		cancel:   cancel,
	}
}

func (f *answerFixture) ask(t *testing.T, question string) *dto.AnswerResponse {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := f.svc.Answer(ctx, f.tenantId, &dto.AnswerRequest{
		ConversationId: uuid.New(),
		Question:       question,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func answerHit(score float32, itemId, text string) vectorindex.Hit {
	return vectorindex.Hit{
		Score: score,
		Payload: map[string]any{
			"item_id":    itemId,
			"source_ref": "https://example.com/docs",
			"title":      "Docs",
			"text":       text,
		},
	}
}

func TestAnswerGreetingSkipsRetrieval(t *testing.T) {
	f := newAnswerFixture(t)
	// Brand-new tenant with zero indexed content.

	resp := f.ask(t, "hi")

	assert.True(t, resp.Success)
	assert.Equal(t, "reply:greeting", resp.Text)
	assert.Empty(t, resp.UsedSources)

	executed := f.executor.executed()
	require.Len(t, executed, 1)
	assert.Equal(t, entity.TaskKindGreeting, executed[0].Kind)

	f.index.mu.Lock()
	searches := f.index.searchCalls
	f.index.mu.Unlock()
	assert.Zero(t, searches)

	assert.Equal(t, 2, f.turnRepo.count())
}

func TestAnswerRedirectsIrrelevantQuestion(t *testing.T) {
	f := newAnswerFixture(t)
	f.index.searchHits = []vectorindex.Hit{
		answerHit(0.12, uuid.NewString(), "unrelated passage"),
	}

	resp := f.ask(t, "who won the world cup in 1998?")

	assert.True(t, resp.Success)
	assert.Equal(t, "reply:redirect", resp.Text)
	assert.Empty(t, resp.UsedSources)

	executed := f.executor.executed()
	require.Len(t, executed, 1)
	assert.Equal(t, entity.TaskKindRedirect, executed[0].Kind)
}

func TestAnswerGroundedPath(t *testing.T) {
	f := newAnswerFixture(t)
	itemId := uuid.NewString()
	f.index.searchHits = []vectorindex.Hit{
		answerHit(0.81, itemId, "The starter plan costs $10 per month."),
		answerHit(0.62, itemId, "All plans include email support."),
	}

	resp := f.ask(t, "how much does the starter plan cost?")

	assert.True(t, resp.Success)
	assert.Equal(t, "reply:answer", resp.Text)
	require.Len(t, resp.UsedSources, 1)
	assert.Equal(t, itemId, resp.UsedSources[0].ItemId.String())
	assert.InDelta(t, 0.81, resp.UsedSources[0].Score, 1e-5)

	executed := f.executor.executed()
	require.Len(t, executed, 1)
	assert.Equal(t, entity.TaskKindAnswer, executed[0].Kind)
	assert.Contains(t, executed[0].Payload.SystemPrompt, "The starter plan costs $10 per month.")
	assert.Equal(t, "how much does the starter plan cost?", executed[0].Payload.UserPrompt)
}

func TestAnswerHonorsTenantThreshold(t *testing.T) {
	f := newAnswerFixture(t)
	_ = f.config.Upsert(context.Background(), &entity.TenantConfig{
		TenantId:       f.tenantId,
		Persona:        "Acme Support",
		ScoreThreshold: 0.9,
	})
	// Relevant by the default bar, but this tenant demands 0.9 and even
	// the single relax step (0.75) excludes it.
	f.index.searchHits = []vectorindex.Hit{
		answerHit(0.5, uuid.NewString(), "loosely related passage"),
	}

	resp := f.ask(t, "do you offer annual billing?")

	assert.True(t, resp.Success)
	assert.Equal(t, "reply:redirect", resp.Text)
	assert.Empty(t, resp.UsedSources)
}

func TestAnswerFallsBackOnCompletionFailure(t *testing.T) {
	f := newAnswerFixture(t)
	f.executor.fail = true
	f.index.searchHits = []vectorindex.Hit{
		answerHit(0.8, uuid.NewString(), "some passage"),
	}

	resp := f.ask(t, "how do refunds work?")

	assert.False(t, resp.Success)
	assert.Equal(t, constant.FallbackApologyMessage, resp.Text)
	// A failed exchange is not written into the conversation history.
	assert.Zero(t, f.turnRepo.count())
}

func TestAnswerEmptyQuestionFallsBack(t *testing.T) {
	f := newAnswerFixture(t)

	resp := f.ask(t, "   ")

	assert.False(t, resp.Success)
	assert.Equal(t, constant.FallbackApologyMessage, resp.Text)
	assert.Empty(t, f.executor.executed())
}
