package mapper

import (
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/model"
)

type TenantQuotaMapper struct{}

func NewTenantQuotaMapper() *TenantQuotaMapper {
	return &TenantQuotaMapper{}
}

func (m *TenantQuotaMapper) ToEntity(q *model.TenantQuota) *entity.TenantQuota {
	if q == nil {
		return nil
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.TenantQuota{
		TenantId:           q.TenantId,
		StorageUsedBytes:   q.StorageUsedBytes,
		StorageLimitBytes:  q.StorageLimitBytes,
		RequestsThisWindow: q.RequestsThisWindow,
		UpdatedAt:          updatedAt,
	}
}

func (m *TenantQuotaMapper) ToModel(q *entity.TenantQuota) *model.TenantQuota {
	if q == nil {
		return nil
	}

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.TenantQuota{
		TenantId:           q.TenantId,
		StorageUsedBytes:   q.StorageUsedBytes,
		StorageLimitBytes:  q.StorageLimitBytes,
		RequestsThisWindow: q.RequestsThisWindow,
		UpdatedAt:          updatedAt,
	}
}

type TenantConfigMapper struct{}

func NewTenantConfigMapper() *TenantConfigMapper {
	return &TenantConfigMapper{}
}

func (m *TenantConfigMapper) ToEntity(c *model.TenantConfig) *entity.TenantConfig {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.TenantConfig{
		TenantId:       c.TenantId,
		Persona:        c.Persona,
		ScoreThreshold: c.ScoreThreshold,
		UpdatedAt:      updatedAt,
	}
}

func (m *TenantConfigMapper) ToModel(c *entity.TenantConfig) *model.TenantConfig {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.TenantConfig{
		TenantId:       c.TenantId,
		Persona:        c.Persona,
		ScoreThreshold: c.ScoreThreshold,
		UpdatedAt:      updatedAt,
	}
}
