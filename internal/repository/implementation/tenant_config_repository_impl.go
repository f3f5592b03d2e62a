package implementation

import (
	"context"
	"errors"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/mapper"
	"github.com/kunaldev758/chataffy-sub000/internal/model"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TenantConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TenantConfigMapper
}

func NewTenantConfigRepository(db *gorm.DB) contract.TenantConfigRepository {
	return &TenantConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewTenantConfigMapper(),
	}
}

func (r *TenantConfigRepositoryImpl) FindByTenant(ctx context.Context, tenantId uuid.UUID) (*entity.TenantConfig, error) {
	var m model.TenantConfig
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TenantConfigRepositoryImpl) Upsert(ctx context.Context, config *entity.TenantConfig) error {
	m := r.mapper.ToModel(config)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"persona", "score_threshold"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*config = *r.mapper.ToEntity(m)
	return nil
}
