package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kunaldev758/chataffy-sub000/internal/dto"
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/unitofwork"
	"github.com/kunaldev758/chataffy-sub000/pkg/vectorindex"

	"github.com/google/uuid"
)

type IIngestionService interface {
	Enqueue(ctx context.Context, tenantId uuid.UUID, req *dto.EnqueueItemRequest) (*dto.EnqueueItemResponse, error)
	EnqueueBatch(ctx context.Context, tenantId uuid.UUID, reqs []*dto.EnqueueItemRequest) ([]*dto.EnqueueItemResponse, error)
	Requeue(ctx context.Context, tenantId uuid.UUID, itemId uuid.UUID) error
	ListItems(ctx context.Context, tenantId uuid.UUID) ([]*dto.ItemStatusResponse, error)
	DeleteItem(ctx context.Context, tenantId uuid.UUID, itemId uuid.UUID) error
	TriggerIngestion(ctx context.Context, tenantId uuid.UUID) error
}

type ingestionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	index            vectorindex.VectorIndex
	collection       string
	maxAttempts      int
	logger           logger.ILogger
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	index vectorindex.VectorIndex,
	collection string,
	maxAttempts int,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		index:            index,
		collection:       collection,
		maxAttempts:      maxAttempts,
		logger:           log,
	}
}

func (s *ingestionService) Enqueue(ctx context.Context, tenantId uuid.UUID, req *dto.EnqueueItemRequest) (*dto.EnqueueItemResponse, error) {
	responses, err := s.EnqueueBatch(ctx, tenantId, []*dto.EnqueueItemRequest{req})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

func (s *ingestionService) EnqueueBatch(ctx context.Context, tenantId uuid.UUID, reqs []*dto.EnqueueItemRequest) ([]*dto.EnqueueItemResponse, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	items := make([]*entity.IngestionItem, len(reqs))
	for i, req := range reqs {
		item := &entity.IngestionItem{
			Id:        uuid.New(),
			TenantId:  tenantId,
			Kind:      req.Kind,
			SourceRef: req.SourceRef,
			Title:     req.Title,
			Stage:     entity.StageQueued,
		}
		// Snippets and FAQs carry their text inline; there is nothing to
		// fetch for them.
		if req.Content != "" {
			content := req.Content
			item.RawContent = &content
		}
		items[i] = item
	}

	if err := uow.IngestionItemRepository().CreateBulk(ctx, items); err != nil {
		return nil, fmt.Errorf("enqueue items: %w", err)
	}

	s.logger.Info("Ingestion", "Items enqueued", map[string]interface{}{
		"tenant_id": tenantId.String(),
		"count":     len(items),
	})

	if err := s.TriggerIngestion(ctx, tenantId); err != nil {
		s.logger.Warn("Ingestion", "Failed to trigger coordinator", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"error":     err.Error(),
		})
	}

	responses := make([]*dto.EnqueueItemResponse, len(items))
	for i, item := range items {
		responses[i] = &dto.EnqueueItemResponse{
			Id:    item.Id,
			Stage: item.Stage,
		}
	}
	return responses, nil
}

func (s *ingestionService) Requeue(ctx context.Context, tenantId uuid.UUID, itemId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.IngestionItemRepository()

	item, err := repo.FindOne(ctx, specification.ByID{ID: itemId}, specification.ByTenant{TenantID: tenantId})
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s not found", itemId)
	}
	if item.Stage != entity.StageFailed {
		return fmt.Errorf("item %s is not failed (stage %s)", itemId, item.Stage)
	}
	if item.Attempts >= s.maxAttempts {
		return fmt.Errorf("item %s exhausted its %d attempts", itemId, s.maxAttempts)
	}

	item.Stage = entity.StageQueued
	item.StageError = nil
	item.Attempts++
	if err := repo.Update(ctx, item); err != nil {
		return fmt.Errorf("requeue item: %w", err)
	}

	s.logger.Info("Ingestion", "Item requeued", map[string]interface{}{
		"tenant_id": tenantId.String(),
		"item_id":   itemId.String(),
		"attempt":   item.Attempts,
	})

	return s.TriggerIngestion(ctx, tenantId)
}

func (s *ingestionService) ListItems(ctx context.Context, tenantId uuid.UUID) ([]*dto.ItemStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	items, err := uow.IngestionItemRepository().FindAll(ctx,
		specification.ByTenant{TenantID: tenantId},
		specification.OldestFirst{},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ItemStatusResponse, len(items))
	for i, item := range items {
		result[i] = &dto.ItemStatusResponse{
			Id:         item.Id,
			Kind:       string(item.Kind),
			SourceRef:  item.SourceRef,
			Title:      item.Title,
			Stage:      item.Stage,
			StageError: item.StageError,
			Attempts:   item.Attempts,
			ChunkCount: item.ChunkCount,
			ByteSize:   item.ByteSize,
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
		}
	}
	return result, nil
}

func (s *ingestionService) DeleteItem(ctx context.Context, tenantId uuid.UUID, itemId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.IngestionItemRepository()

	item, err := repo.FindOne(ctx, specification.ByID{ID: itemId}, specification.ByTenant{TenantID: tenantId})
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s not found", itemId)
	}

	// Vectors first so a failure leaves the row as the source of truth
	// for a retry.
	if err := s.index.DeleteByFilter(ctx, s.collection, vectorindex.Filter{
		TenantId: tenantId.String(),
		ItemId:   itemId.String(),
	}); err != nil {
		return fmt.Errorf("delete item vectors: %w", err)
	}

	if err := repo.Delete(ctx, itemId); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	// Release the bytes an indexed item was charged for.
	if item.Stage == entity.StageIndexed && item.ByteSize > 0 {
		if _, err := uow.TenantQuotaRepository().AddStorageUsed(ctx, tenantId, -item.ByteSize); err != nil {
			s.logger.Warn("Ingestion", "Failed to release quota", map[string]interface{}{
				"tenant_id": tenantId.String(),
				"item_id":   itemId.String(),
				"error":     err.Error(),
			})
		}
	}

	s.logger.Info("Ingestion", "Item deleted", map[string]interface{}{
		"tenant_id": tenantId.String(),
		"item_id":   itemId.String(),
	})
	return nil
}

func (s *ingestionService) TriggerIngestion(ctx context.Context, tenantId uuid.UUID) error {
	payload := dto.PublishIngestMessage{TenantId: tenantId}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, payloadJson)
}
