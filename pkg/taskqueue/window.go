package taskqueue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type windowEntry struct {
	dispatchedAt time.Time
	completedAt  time.Time // zero while the call is in flight
}

// Window counts calls against a rolling admission span. An entry
// occupies a slot from dispatch until span after completion, so slow
// upstream responses still hold capacity (in-flight calls count).
type Window struct {
	mu      sync.Mutex
	span    time.Duration
	entries map[uuid.UUID]*windowEntry
}

func NewWindow(span time.Duration) *Window {
	return &Window{
		span:    span,
		entries: make(map[uuid.UUID]*windowEntry),
	}
}

// Count prunes fully expired entries and returns how many slots are
// occupied at now.
func (w *Window) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := 0
	for id, e := range w.entries {
		if w.expired(e, now) {
			delete(w.entries, id)
			continue
		}
		count++
	}
	return count
}

func (w *Window) expired(e *windowEntry, now time.Time) bool {
	if e.completedAt.IsZero() {
		return false
	}
	return now.Sub(e.dispatchedAt) >= w.span && now.Sub(e.completedAt) >= w.span
}

func (w *Window) Add(id uuid.UUID, dispatchedAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[id] = &windowEntry{dispatchedAt: dispatchedAt}
}

func (w *Window) Complete(id uuid.UUID, completedAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entries[id]; ok {
		e.completedAt = completedAt
	}
}
