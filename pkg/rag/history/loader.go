package history

import (
	"context"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/unitofwork"
	"github.com/kunaldev758/chataffy-sub000/pkg/llm"

	"github.com/google/uuid"
)

// Loader reads recent conversation turns for LLM context.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
	maxTurns   int
}

func NewLoader(uowFactory unitofwork.RepositoryFactory, maxTurns int) *Loader {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Loader{
		uowFactory: uowFactory,
		maxTurns:   maxTurns,
	}
}

// Load returns the newest turns of a conversation in chronological order,
// ready to prepend to a prompt. A conversation with no stored turns yields
// an empty slice, not an error.
func (l *Loader) Load(ctx context.Context, conversationId uuid.UUID) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	turns, err := uow.ConversationTurnRepository().FindRecent(ctx, conversationId, l.maxTurns)
	if err != nil {
		return nil, err
	}

	// FindRecent is newest-first; prompts want oldest-first.
	messages := make([]llm.Message, 0, len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		role := "user"
		if turn.Role == entity.TurnRoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: turn.Text,
		})
	}

	return messages, nil
}
