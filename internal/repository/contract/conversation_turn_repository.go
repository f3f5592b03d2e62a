package contract

import (
	"context"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error)

	// FindRecent returns the newest limit turns of a conversation,
	// newest-first. Callers reverse for chronological prompts.
	FindRecent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.ConversationTurn, error)
}
