package implementation

import (
	"context"
	"errors"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/mapper"
	"github.com/kunaldev758/chataffy-sub000/internal/model"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/contract"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngestionItemRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IngestionItemMapper
}

func NewIngestionItemRepository(db *gorm.DB) contract.IngestionItemRepository {
	return &IngestionItemRepositoryImpl{
		db:     db,
		mapper: mapper.NewIngestionItemMapper(),
	}
}

func (r *IngestionItemRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IngestionItemRepositoryImpl) Create(ctx context.Context, item *entity.IngestionItem) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *IngestionItemRepositoryImpl) CreateBulk(ctx context.Context, items []*entity.IngestionItem) error {
	if len(items) == 0 {
		return nil
	}
	models := make([]*model.IngestionItem, len(items))
	for i, item := range items {
		models[i] = r.mapper.ToModel(item)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*items[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *IngestionItemRepositoryImpl) Update(ctx context.Context, item *entity.IngestionItem) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *IngestionItemRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.IngestionItem{}, id).Error
}

func (r *IngestionItemRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.IngestionItem, error) {
	var m model.IngestionItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *IngestionItemRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.IngestionItem, error) {
	var models []*model.IngestionItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *IngestionItemRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.IngestionItem{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IngestionItemRepositoryImpl) FindBatch(ctx context.Context, tenantId uuid.UUID, stage entity.Stage, limit int) ([]*entity.IngestionItem, error) {
	var models []*model.IngestionItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND stage = ?", tenantId, string(stage)).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *IngestionItemRepositoryImpl) ClaimStage(ctx context.Context, id uuid.UUID, from, to entity.Stage) (bool, error) {
	// Backward or out-of-terminal claims never reach the database.
	if !from.CanTransitionTo(to) {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.IngestionItem{}).
		Where("id = ? AND stage = ?", id, string(from)).
		Update("stage", string(to))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
