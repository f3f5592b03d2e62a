package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/mapper"
	"github.com/kunaldev758/chataffy-sub000/internal/model"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/contract"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QueuedTaskRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueuedTaskMapper
}

func NewQueuedTaskRepository(db *gorm.DB) contract.QueuedTaskRepository {
	return &QueuedTaskRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueuedTaskMapper(),
	}
}

func (r *QueuedTaskRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QueuedTaskRepositoryImpl) Create(ctx context.Context, task *entity.QueuedTask) error {
	m, err := r.mapper.ToModel(task)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*task = *r.mapper.ToEntity(m)
	return nil
}

func (r *QueuedTaskRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QueuedTask, error) {
	var m model.QueuedTask
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QueuedTaskRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueuedTask, error) {
	var models []*model.QueuedTask
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QueuedTaskRepositoryImpl) FindPending(ctx context.Context, limit int) ([]*entity.QueuedTask, error) {
	var models []*model.QueuedTask
	err := r.db.WithContext(ctx).
		Where("status = ?", string(entity.TaskStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QueuedTaskRepositoryImpl) MarkProcessing(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.QueuedTask{}).
		Where("id = ? AND status = ?", id, string(entity.TaskStatusPending)).
		Updates(map[string]interface{}{
			"status":        string(entity.TaskStatusProcessing),
			"dispatched_at": dispatchedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *QueuedTaskRepositoryImpl) Resolve(ctx context.Context, id uuid.UUID, result *entity.TaskResult, completedAt time.Time) error {
	resultJson, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.QueuedTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entity.TaskStatusResolved),
			"result":       datatypes.JSON(resultJson),
			"completed_at": completedAt,
		}).Error
}

func (r *QueuedTaskRepositoryImpl) Reject(ctx context.Context, id uuid.UUID, reason string, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.QueuedTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entity.TaskStatusRejected),
			"error":        reason,
			"completed_at": completedAt,
		}).Error
}

func (r *QueuedTaskRepositoryImpl) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?", []string{
			string(entity.TaskStatusResolved),
			string(entity.TaskStatusRejected),
		}, cutoff).
		Delete(&model.QueuedTask{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
