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

type TenantQuotaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TenantQuotaMapper
}

func NewTenantQuotaRepository(db *gorm.DB) contract.TenantQuotaRepository {
	return &TenantQuotaRepositoryImpl{
		db:     db,
		mapper: mapper.NewTenantQuotaMapper(),
	}
}

func (r *TenantQuotaRepositoryImpl) FindByTenant(ctx context.Context, tenantId uuid.UUID) (*entity.TenantQuota, error) {
	var m model.TenantQuota
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TenantQuotaRepositoryImpl) Upsert(ctx context.Context, quota *entity.TenantQuota) error {
	m := r.mapper.ToModel(quota)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"storage_used_bytes", "storage_limit_bytes", "requests_this_window"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*quota = *r.mapper.ToEntity(m)
	return nil
}

func (r *TenantQuotaRepositoryImpl) AddStorageUsed(ctx context.Context, tenantId uuid.UUID, delta int64) (bool, error) {
	// Guarded increment; the WHERE clause makes check and apply a single
	// statement so concurrent items cannot both slip under the limit.
	res := r.db.WithContext(ctx).
		Model(&model.TenantQuota{}).
		Where("tenant_id = ? AND storage_used_bytes + ? <= storage_limit_bytes", tenantId, delta).
		Update("storage_used_bytes", gorm.Expr("storage_used_bytes + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
