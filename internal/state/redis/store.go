package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/state"

	"github.com/redis/go-redis/v9"
)

// Store backs busy flags and task entries with redis so multiple engine
// instances coordinate on the same tenant.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func busyKey(tenantId string) string {
	return "engine:busy:" + tenantId
}

func taskKey(taskId string) string {
	return "engine:task:" + taskId
}

func (s *Store) TryAcquireBusy(ctx context.Context, tenantId string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, busyKey(tenantId), "1", ttl).Result()
}

func (s *Store) ReleaseBusy(ctx context.Context, tenantId string) error {
	return s.rdb.Del(ctx, busyKey(tenantId)).Err()
}

func (s *Store) IsBusy(ctx context.Context, tenantId string) (bool, error) {
	n, err := s.rdb.Exists(ctx, busyKey(tenantId)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) SetTaskEntry(ctx context.Context, taskId string, entry *state.TaskEntry, ttl time.Duration) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, taskKey(taskId), b, ttl).Err()
}

func (s *Store) GetTaskEntry(ctx context.Context, taskId string) (*state.TaskEntry, bool, error) {
	b, err := s.rdb.Get(ctx, taskKey(taskId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry state.TaskEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}
