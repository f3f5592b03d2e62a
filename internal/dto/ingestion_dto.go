package dto

import (
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"

	"github.com/google/uuid"
)

type EnqueueItemRequest struct {
	Kind      entity.ItemKind `json:"kind"`
	SourceRef string          `json:"source_ref"`
	Title     string          `json:"title,omitempty"`
	// Content carries the literal text for snippet/FAQ items; web pages and
	// files are fetched from SourceRef instead.
	Content string `json:"content,omitempty"`
}

type EnqueueItemResponse struct {
	Id    uuid.UUID    `json:"id"`
	Stage entity.Stage `json:"stage"`
}

type ItemStatusResponse struct {
	Id         uuid.UUID    `json:"id"`
	Kind       string       `json:"kind"`
	SourceRef  string       `json:"source_ref"`
	Title      string       `json:"title,omitempty"`
	Stage      entity.Stage `json:"stage"`
	StageError *string      `json:"stage_error,omitempty"`
	Attempts   int          `json:"attempts"`
	ChunkCount int          `json:"chunk_count"`
	ByteSize   int64        `json:"byte_size"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty"`
}

// PublishIngestMessage is the payload of the watermill trigger that wakes
// the coordinator for a tenant.
type PublishIngestMessage struct {
	TenantId uuid.UUID `json:"tenant_id"`
}
