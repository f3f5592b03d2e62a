package model

import (
	"time"

	"github.com/google/uuid"
)

type TenantConfig struct {
	TenantId       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Persona        string    `gorm:"type:text"`
	ScoreThreshold float64   `gorm:"default:0"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (TenantConfig) TableName() string {
	return "tenant_configs"
}
