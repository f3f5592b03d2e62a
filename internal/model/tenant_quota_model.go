package model

import (
	"time"

	"github.com/google/uuid"
)

type TenantQuota struct {
	TenantId           uuid.UUID `gorm:"type:uuid;primaryKey"`
	StorageUsedBytes   int64     `gorm:"not null;default:0"`
	StorageLimitBytes  int64     `gorm:"not null;default:0"`
	RequestsThisWindow int       `gorm:"not null;default:0"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (TenantQuota) TableName() string {
	return "tenant_quotas"
}
