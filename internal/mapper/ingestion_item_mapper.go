package mapper

import (
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/model"
)

type IngestionItemMapper struct{}

func NewIngestionItemMapper() *IngestionItemMapper {
	return &IngestionItemMapper{}
}

func (m *IngestionItemMapper) ToEntity(i *model.IngestionItem) *entity.IngestionItem {
	if i == nil {
		return nil
	}

	var updatedAt *time.Time
	if !i.UpdatedAt.IsZero() {
		t := i.UpdatedAt
		updatedAt = &t
	}

	return &entity.IngestionItem{
		Id:           i.Id,
		TenantId:     i.TenantId,
		Kind:         entity.ItemKind(i.Kind),
		SourceRef:    i.SourceRef,
		Title:        i.Title,
		RawContent:   i.RawContent,
		CleanContent: i.CleanContent,
		Stage:        entity.Stage(i.Stage),
		StageError:   i.StageError,
		Attempts:     i.Attempts,
		ChunkCount:   i.ChunkCount,
		ByteSize:     i.ByteSize,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *IngestionItemMapper) ToModel(i *entity.IngestionItem) *model.IngestionItem {
	if i == nil {
		return nil
	}

	var updatedAt time.Time
	if i.UpdatedAt != nil {
		updatedAt = *i.UpdatedAt
	}

	return &model.IngestionItem{
		Id:           i.Id,
		TenantId:     i.TenantId,
		Kind:         string(i.Kind),
		SourceRef:    i.SourceRef,
		Title:        i.Title,
		RawContent:   i.RawContent,
		CleanContent: i.CleanContent,
		Stage:        string(i.Stage),
		StageError:   i.StageError,
		Attempts:     i.Attempts,
		ChunkCount:   i.ChunkCount,
		ByteSize:     i.ByteSize,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *IngestionItemMapper) ToEntities(items []*model.IngestionItem) []*entity.IngestionItem {
	entities := make([]*entity.IngestionItem, len(items))
	for i, it := range items {
		entities[i] = m.ToEntity(it)
	}
	return entities
}
