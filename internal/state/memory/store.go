package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/state"

	"github.com/patrickmn/go-cache"
)

// Store keeps busy flags and task entries in-process. Default expiration
// one hour, expired entries purged every ten minutes.
type Store struct {
	cache *cache.Cache

	// go-cache Add is not atomic with respect to expired-but-unpurged
	// entries, so flag acquisition takes this lock.
	mu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func busyKey(tenantId string) string {
	return "busy:" + tenantId
}

func taskKey(taskId string) string {
	return "task:" + taskId
}

func (s *Store) TryAcquireBusy(ctx context.Context, tenantId string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.cache.Get(busyKey(tenantId)); found {
		return false, nil
	}
	s.cache.Set(busyKey(tenantId), true, ttl)
	return true, nil
}

func (s *Store) ReleaseBusy(ctx context.Context, tenantId string) error {
	s.cache.Delete(busyKey(tenantId))
	return nil
}

func (s *Store) IsBusy(ctx context.Context, tenantId string) (bool, error) {
	_, found := s.cache.Get(busyKey(tenantId))
	return found, nil
}

func (s *Store) SetTaskEntry(ctx context.Context, taskId string, entry *state.TaskEntry, ttl time.Duration) error {
	s.cache.Set(taskKey(taskId), entry, ttl)
	return nil
}

func (s *Store) GetTaskEntry(ctx context.Context, taskId string) (*state.TaskEntry, bool, error) {
	x, found := s.cache.Get(taskKey(taskId))
	if !found {
		return nil, false, nil
	}
	return x.(*state.TaskEntry), true, nil
}
