package specification

import (
	"github.com/kunaldev758/chataffy-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByTenant scopes a query to a single tenant. Every ingestion and
// retrieval query must carry this.
type ByTenant struct {
	TenantID uuid.UUID
}

func (s ByTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

// ByStage filters ingestion items by pipeline stage.
type ByStage struct {
	Stage entity.Stage
}

func (s ByStage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stage = ?", string(s.Stage))
}

// ByTaskStatus filters queued tasks by lifecycle status.
type ByTaskStatus struct {
	Status entity.TaskStatus
}

func (s ByTaskStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

// ByConversation filters conversation turns by conversation.
type ByConversation struct {
	ConversationID uuid.UUID
}

func (s ByConversation) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// OldestFirst orders by creation time ascending. Batch claiming relies on
// this for FIFO fairness across cycles.
type OldestFirst struct{}

func (s OldestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
