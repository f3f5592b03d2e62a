package contract

import (
	"context"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type IngestionItemRepository interface {
	Create(ctx context.Context, item *entity.IngestionItem) error
	CreateBulk(ctx context.Context, items []*entity.IngestionItem) error
	Update(ctx context.Context, item *entity.IngestionItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.IngestionItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindBatch returns up to limit items of a tenant in the given stage,
	// oldest-created-first.
	FindBatch(ctx context.Context, tenantId uuid.UUID, stage entity.Stage, limit int) ([]*entity.IngestionItem, error)

	// ClaimStage atomically moves an item from one stage to another with a
	// conditional update. It returns false when another coordinator already
	// claimed the item (stage no longer matches from).
	ClaimStage(ctx context.Context, id uuid.UUID, from, to entity.Stage) (bool, error)
}
