package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"voice-order/internal/common/models"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryRepository is a process-local store with the same expiry rules as
// the redis one. Stored sessions are copies, never shared pointers.
type MemoryRepository struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryRepo(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.ttl > 0 && r.now().After(e.expiresAt) {
		delete(r.entries, id)
		return nil, ErrNotFound
	}

	var s models.Session
	if err := json.Unmarshal(e.raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MemoryRepository) Save(_ context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.entries[s.ID] = memoryEntry{raw: raw, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

var _ IRepository = (*MemoryRepository)(nil)
