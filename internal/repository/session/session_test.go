package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(key string, value any, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	f.ttl[key] = expiration
	return nil
}

func (f *fakeRedis) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeRedis) Del(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeRedis) Expire(key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl[key] = expiration
	return nil
}

func (f *fakeRedis) Ping() error  { return nil }
func (f *fakeRedis) Close() error { return nil }

func sampleSession() *models.Session {
	return &models.Session{
		ID:         "2b7c8f2e-3d6c-4f7b-9a53-0c3fd0e9f8a1",
		Mode:       enum.MODE_ENHANCED,
		Step:       enum.STEP_REVIEWING,
		Transcript: "two coffees",
		Order: models.OrderDetails{
			Items: []models.OrderItem{{ID: "1", Name: "Large Coffee", Quantity: 2, Price: 5}},
			Total: 10,
		},
		Progress: 100,
	}
}

func TestRedisRepository(t *testing.T) {
	rds := newFakeRedis()
	repo := NewRepo(rds, 30*time.Minute)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	s := sampleSession()
	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, 30*time.Minute, rds.ttl[keyPrefix+s.ID])

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Transcript, got.Transcript)
	assert.Equal(t, s.Order.Items, got.Order.Items)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	repo := NewMemoryRepo(time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Transcript = "changed"

	again, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "two coffees", again.Transcript)

	clock = clock.Add(2 * time.Minute)
	_, err = repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
