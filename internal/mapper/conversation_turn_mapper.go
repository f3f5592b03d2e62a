package mapper

import (
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/model"
)

type ConversationTurnMapper struct{}

func NewConversationTurnMapper() *ConversationTurnMapper {
	return &ConversationTurnMapper{}
}

func (m *ConversationTurnMapper) ToEntity(t *model.ConversationTurn) *entity.ConversationTurn {
	if t == nil {
		return nil
	}
	return &entity.ConversationTurn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		TenantId:       t.TenantId,
		Role:           t.Role,
		Text:           t.Text,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ConversationTurnMapper) ToModel(t *entity.ConversationTurn) *model.ConversationTurn {
	if t == nil {
		return nil
	}
	return &model.ConversationTurn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		TenantId:       t.TenantId,
		Role:           t.Role,
		Text:           t.Text,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ConversationTurnMapper) ToEntities(turns []*model.ConversationTurn) []*entity.ConversationTurn {
	entities := make([]*entity.ConversationTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
