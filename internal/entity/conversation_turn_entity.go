package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// ConversationTurn is one message of an end-user conversation. The answer
// path reads these to build recency-ordered history; it never mutates them.
type ConversationTurn struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	TenantId       uuid.UUID
	Role           string
	Text           string
	CreatedAt      time.Time
}
