package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/dto"
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/unitofwork"
	"github.com/kunaldev758/chataffy-sub000/internal/state"
	"github.com/kunaldev758/chataffy-sub000/pkg/chunker"
	"github.com/kunaldev758/chataffy-sub000/pkg/embedding"
	"github.com/kunaldev758/chataffy-sub000/pkg/fetcher"
	"github.com/kunaldev758/chataffy-sub000/pkg/normalizer"
	"github.com/kunaldev758/chataffy-sub000/pkg/notifier"
	"github.com/kunaldev758/chataffy-sub000/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ICoordinatorService interface {
	Consume(ctx context.Context) error
	RunCycle(ctx context.Context, tenantId uuid.UUID)
}

type coordinatorService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	stateStore state.Store
	fetcher    fetcher.Fetcher
	normalizer *normalizer.Normalizer
	chunker    *chunker.Chunker
	batcher    *embedding.Batcher
	index      vectorindex.VectorIndex
	collection string
	notifier   notifier.ProgressNotifier
	logger     logger.ILogger
	batchSize  int
	busyTTL    time.Duration
}

func NewCoordinatorService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	stateStore state.Store,
	pageFetcher fetcher.Fetcher,
	norm *normalizer.Normalizer,
	chunk *chunker.Chunker,
	batcher *embedding.Batcher,
	index vectorindex.VectorIndex,
	collection string,
	progress notifier.ProgressNotifier,
	log logger.ILogger,
	batchSize int,
	busyTTL time.Duration,
) ICoordinatorService {
	return &coordinatorService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		stateStore: stateStore,
		fetcher:    pageFetcher,
		normalizer: norm,
		chunker:    chunk,
		batcher:    batcher,
		index:      index,
		collection: collection,
		notifier:   progress,
		logger:     log,
		batchSize:  batchSize,
		busyTTL:    busyTTL,
	}
}

func (cs *coordinatorService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *coordinatorService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Coordinator", "Failed to unmarshal trigger message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.RunCycle(ctx, payload.TenantId)
	msg.Ack()
}

// RunCycle drains every pipeline stage for a tenant. At most one cycle
// runs per tenant; a second trigger while one is active is a no-op.
// Per-item failures are recorded on the item and never abort the batch.
func (cs *coordinatorService) RunCycle(ctx context.Context, tenantId uuid.UUID) {
	acquired, err := cs.stateStore.TryAcquireBusy(ctx, tenantId.String(), cs.busyTTL)
	if err != nil {
		cs.logger.Error("Coordinator", "Busy flag check failed", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"error":     err.Error(),
		})
		return
	}
	if !acquired {
		cs.logger.Debug("Coordinator", "Cycle already running for tenant", map[string]interface{}{
			"tenant_id": tenantId.String(),
		})
		return
	}
	defer func() {
		if err := cs.stateStore.ReleaseBusy(ctx, tenantId.String()); err != nil {
			cs.logger.Warn("Coordinator", "Failed to release busy flag", map[string]interface{}{
				"tenant_id": tenantId.String(),
				"error":     err.Error(),
			})
		}
	}()

	cs.logger.Info("Coordinator", "Ingestion cycle started", map[string]interface{}{
		"tenant_id": tenantId.String(),
	})

	// Set when an item hits the storage quota; the cycle stops pulling
	// further work for the tenant (backpressure).
	var quotaBlocked atomic.Bool

	for {
		progressed := false
		for _, stage := range []entity.Stage{entity.StageQueued, entity.StageFetched, entity.StageNormalized} {
			if quotaBlocked.Load() {
				break
			}
			n := cs.drainStage(ctx, tenantId, stage, &quotaBlocked)
			if n > 0 {
				progressed = true
			}
		}
		if !progressed || quotaBlocked.Load() {
			break
		}
	}

	cs.logger.Info("Coordinator", "Ingestion cycle finished", map[string]interface{}{
		"tenant_id":     tenantId.String(),
		"quota_blocked": quotaBlocked.Load(),
	})
}

// drainStage claims one batch of items sitting in stage and processes
// them with bounded fan-out. Returns how many items were picked up.
func (cs *coordinatorService) drainStage(ctx context.Context, tenantId uuid.UUID, stage entity.Stage, quotaBlocked *atomic.Bool) int {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	items, err := uow.IngestionItemRepository().FindBatch(ctx, tenantId, stage, cs.batchSize)
	if err != nil {
		cs.logger.Error("Coordinator", "Failed to fetch stage batch", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"stage":     string(stage),
			"error":     err.Error(),
		})
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cs.batchSize)
	for _, item := range items {
		g.Go(func() error {
			// Errors are isolated per item inside the handlers.
			switch stage {
			case entity.StageQueued:
				cs.processQueued(gctx, item)
			case entity.StageFetched:
				cs.processFetched(gctx, item)
			case entity.StageNormalized:
				cs.processNormalized(gctx, item, quotaBlocked)
			}
			return nil
		})
	}
	_ = g.Wait()

	return len(items)
}

// processQueued fetches raw content. Snippet and FAQ items carry their
// text inline and skip the network round-trip.
func (cs *coordinatorService) processQueued(ctx context.Context, item *entity.IngestionItem) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	repo := uow.IngestionItemRepository()

	claimed, err := repo.ClaimStage(ctx, item.Id, entity.StageQueued, entity.StageFetching)
	if err != nil || !claimed {
		return
	}
	item.Stage = entity.StageFetching

	if item.RawContent == nil {
		raw, err := cs.fetcher.Fetch(ctx, item.SourceRef)
		if err != nil {
			cs.markFailed(ctx, item, err)
			return
		}
		item.RawContent = &raw
	}

	item.Stage = entity.StageFetched
	if err := repo.Update(ctx, item); err != nil {
		cs.logger.Error("Coordinator", "Failed to persist fetched item", map[string]interface{}{
			"item_id": item.Id.String(),
			"error":   err.Error(),
		})
		return
	}
	cs.emitProgress(item)
}

// processFetched strips boilerplate. Empty output is a failure, not an
// empty success.
func (cs *coordinatorService) processFetched(ctx context.Context, item *entity.IngestionItem) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	repo := uow.IngestionItemRepository()

	claimed, err := repo.ClaimStage(ctx, item.Id, entity.StageFetched, entity.StageNormalizing)
	if err != nil || !claimed {
		return
	}
	item.Stage = entity.StageNormalizing

	raw := ""
	if item.RawContent != nil {
		raw = *item.RawContent
	}

	baseURL := ""
	if item.Kind == entity.ItemKindWebPage {
		baseURL = item.SourceRef
	}

	res, err := cs.normalizer.Normalize(raw, baseURL)
	if err != nil {
		cs.markFailed(ctx, item, err)
		return
	}

	item.CleanContent = &res.CleanText
	if item.Title == "" && res.Title != "" {
		item.Title = res.Title
	}
	item.Stage = entity.StageNormalized
	if err := repo.Update(ctx, item); err != nil {
		cs.logger.Error("Coordinator", "Failed to persist normalized item", map[string]interface{}{
			"item_id": item.Id.String(),
			"error":   err.Error(),
		})
		return
	}
	cs.emitProgress(item)
}

// processNormalized chunks, embeds and indexes the item. The quota gate
// sits right before the index upsert.
func (cs *coordinatorService) processNormalized(ctx context.Context, item *entity.IngestionItem, quotaBlocked *atomic.Bool) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	repo := uow.IngestionItemRepository()

	claimed, err := repo.ClaimStage(ctx, item.Id, entity.StageNormalized, entity.StageChunking)
	if err != nil || !claimed {
		return
	}
	item.Stage = entity.StageChunking

	if item.CleanContent == nil || *item.CleanContent == "" {
		cs.markFailed(ctx, item, fmt.Errorf("no clean content to index"))
		return
	}
	clean := *item.CleanContent

	passages := cs.chunker.Chunk(clean)
	if len(passages) == 0 {
		cs.markFailed(ctx, item, fmt.Errorf("chunking produced no passages"))
		return
	}

	item.Stage = entity.StageEmbedding
	if err := repo.Update(ctx, item); err != nil {
		cs.logger.Error("Coordinator", "Failed to persist embedding stage", map[string]interface{}{
			"item_id": item.Id.String(),
			"error":   err.Error(),
		})
		return
	}
	cs.emitProgress(item)

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vectors, err := cs.batcher.GenerateBatch(ctx, texts, embedding.TaskTypeDocument)
	if err != nil {
		cs.markFailed(ctx, item, err)
		return
	}

	// Quota gate: a single compare-and-increment, so two concurrent
	// items cannot both squeeze under the limit.
	estimatedBytes := int64(len(clean))
	applied, err := uow.TenantQuotaRepository().AddStorageUsed(ctx, item.TenantId, estimatedBytes)
	if err != nil {
		cs.markFailed(ctx, item, fmt.Errorf("quota check: %w", err))
		return
	}
	if !applied {
		quotaBlocked.Store(true)
		reason := entity.ReasonQuotaExceeded
		item.Stage = entity.StageFailed
		item.StageError = &reason
		if err := repo.Update(ctx, item); err != nil {
			cs.logger.Error("Coordinator", "Failed to persist quota failure", map[string]interface{}{
				"item_id": item.Id.String(),
				"error":   err.Error(),
			})
		}
		cs.notifier.Emit(item.TenantId, notifier.EventQuotaExceeded, map[string]interface{}{
			"item_id": item.Id.String(),
			"bytes":   estimatedBytes,
		})
		cs.logger.Warn("Coordinator", "Tenant storage quota exceeded", map[string]interface{}{
			"tenant_id": item.TenantId.String(),
			"item_id":   item.Id.String(),
			"bytes":     estimatedBytes,
		})
		return
	}

	// Replace any previous vectors for this item before upserting.
	filter := vectorindex.Filter{TenantId: item.TenantId.String(), ItemId: item.Id.String()}
	if err := cs.index.DeleteByFilter(ctx, cs.collection, filter); err != nil {
		cs.rollbackQuota(ctx, uow, item.TenantId, estimatedBytes)
		cs.markFailed(ctx, item, fmt.Errorf("clear stale vectors: %w", err))
		return
	}

	points := make([]vectorindex.Point, len(passages))
	for i, p := range passages {
		points[i] = vectorindex.Point{
			Id:     uuid.New().String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"tenant_id":     item.TenantId.String(),
				"item_id":       item.Id.String(),
				"source_ref":    item.SourceRef,
				"title":         item.Title,
				"text":          p.Text,
				"passage_index": p.Index,
				"passage_total": p.Total,
			},
		}
	}
	if err := cs.index.Upsert(ctx, cs.collection, points); err != nil {
		cs.rollbackQuota(ctx, uow, item.TenantId, estimatedBytes)
		cs.markFailed(ctx, item, fmt.Errorf("index upsert: %w", err))
		return
	}

	item.Stage = entity.StageIndexed
	item.ChunkCount = len(passages)
	item.ByteSize = estimatedBytes
	if err := repo.Update(ctx, item); err != nil {
		cs.logger.Error("Coordinator", "Failed to persist indexed item", map[string]interface{}{
			"item_id": item.Id.String(),
			"error":   err.Error(),
		})
		return
	}
	cs.emitProgress(item)

	cs.logger.Info("Coordinator", "Item indexed", map[string]interface{}{
		"tenant_id": item.TenantId.String(),
		"item_id":   item.Id.String(),
		"passages":  len(passages),
		"bytes":     estimatedBytes,
	})
}

func (cs *coordinatorService) rollbackQuota(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, bytes int64) {
	if _, err := uow.TenantQuotaRepository().AddStorageUsed(ctx, tenantId, -bytes); err != nil {
		cs.logger.Error("Coordinator", "Failed to roll back quota charge", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"bytes":     bytes,
			"error":     err.Error(),
		})
	}
}

func (cs *coordinatorService) markFailed(ctx context.Context, item *entity.IngestionItem, cause error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	msg := cause.Error()
	item.Stage = entity.StageFailed
	item.StageError = &msg
	if err := uow.IngestionItemRepository().Update(ctx, item); err != nil {
		cs.logger.Error("Coordinator", "Failed to persist item failure", map[string]interface{}{
			"item_id": item.Id.String(),
			"error":   err.Error(),
		})
	}

	cs.notifier.Emit(item.TenantId, notifier.EventIngestionFailed, map[string]interface{}{
		"item_id": item.Id.String(),
		"reason":  msg,
	})
	cs.logger.Warn("Coordinator", "Item failed", map[string]interface{}{
		"tenant_id": item.TenantId.String(),
		"item_id":   item.Id.String(),
		"error":     msg,
	})
}

func (cs *coordinatorService) emitProgress(item *entity.IngestionItem) {
	cs.notifier.Emit(item.TenantId, notifier.EventIngestionProgress, map[string]interface{}{
		"item_id": item.Id.String(),
		"stage":   string(item.Stage),
	})
}
