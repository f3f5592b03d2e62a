package mapper

import (
	"encoding/json"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/model"

	"gorm.io/datatypes"
)

type QueuedTaskMapper struct{}

func NewQueuedTaskMapper() *QueuedTaskMapper {
	return &QueuedTaskMapper{}
}

func (m *QueuedTaskMapper) ToEntity(t *model.QueuedTask) *entity.QueuedTask {
	if t == nil {
		return nil
	}

	var payload entity.TaskPayload
	if len(t.Payload) > 0 {
		// Payload was written by ToModel; a decode failure here means the
		// row was corrupted outside the application.
		_ = json.Unmarshal(t.Payload, &payload)
	}

	var result *entity.TaskResult
	if len(t.Result) > 0 {
		var r entity.TaskResult
		if err := json.Unmarshal(t.Result, &r); err == nil {
			result = &r
		}
	}

	return &entity.QueuedTask{
		Id:           t.Id,
		TenantId:     t.TenantId,
		Kind:         entity.TaskKind(t.Kind),
		Payload:      payload,
		Status:       entity.TaskStatus(t.Status),
		Result:       result,
		Error:        t.Error,
		CreatedAt:    t.CreatedAt,
		DispatchedAt: t.DispatchedAt,
		CompletedAt:  t.CompletedAt,
	}
}

func (m *QueuedTaskMapper) ToModel(t *entity.QueuedTask) (*model.QueuedTask, error) {
	if t == nil {
		return nil, nil
	}

	payloadJson, err := json.Marshal(t.Payload)
	if err != nil {
		return nil, err
	}

	var resultJson datatypes.JSON
	if t.Result != nil {
		b, err := json.Marshal(t.Result)
		if err != nil {
			return nil, err
		}
		resultJson = datatypes.JSON(b)
	}

	return &model.QueuedTask{
		Id:           t.Id,
		TenantId:     t.TenantId,
		Kind:         string(t.Kind),
		Payload:      datatypes.JSON(payloadJson),
		Status:       string(t.Status),
		Result:       resultJson,
		Error:        t.Error,
		CreatedAt:    t.CreatedAt,
		DispatchedAt: t.DispatchedAt,
		CompletedAt:  t.CompletedAt,
	}, nil
}

func (m *QueuedTaskMapper) ToEntities(tasks []*model.QueuedTask) []*entity.QueuedTask {
	entities := make([]*entity.QueuedTask, len(tasks))
	for i, t := range tasks {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
