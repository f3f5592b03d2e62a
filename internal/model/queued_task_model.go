package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QueuedTask struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind         string         `gorm:"type:varchar(32);not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null"`
	Status       string         `gorm:"type:varchar(16);not null;index"`
	Result       datatypes.JSON `gorm:"type:jsonb"`
	Error        *string        `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index"`
	DispatchedAt *time.Time
	CompletedAt  *time.Time
}

func (QueuedTask) TableName() string {
	return "queued_tasks"
}
