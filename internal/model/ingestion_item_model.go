package model

import (
	"time"

	"github.com/google/uuid"
)

type IngestionItem struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId     uuid.UUID `gorm:"type:uuid;not null;index:idx_ingestion_items_tenant_stage"`
	Kind         string    `gorm:"type:varchar(32);not null"`
	SourceRef    string    `gorm:"type:text;not null"`
	Title        string    `gorm:"type:text"`
	RawContent   *string   `gorm:"type:text"`
	CleanContent *string   `gorm:"type:text"`
	Stage        string    `gorm:"type:varchar(32);not null;index:idx_ingestion_items_tenant_stage"`
	StageError   *string   `gorm:"type:text"`
	Attempts     int       `gorm:"default:0"`
	ChunkCount   int       `gorm:"default:0"`
	ByteSize     int64     `gorm:"default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (IngestionItem) TableName() string {
	return "ingestion_items"
}
