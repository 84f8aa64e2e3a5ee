package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gorm/caches/v4"
	_redis "github.com/redis/go-redis/v9"
)

// memoryCacher keeps cached query results in process memory.
type memoryCacher struct {
	once  sync.Once
	mu    sync.RWMutex
	store map[string][]byte
}

func (c *memoryCacher) init() {
	c.once.Do(func() {
		c.store = make(map[string][]byte)
	})
}

func (c *memoryCacher) Get(_ context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	c.init()
	c.mu.RLock()
	val, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if err := q.Unmarshal(val); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *memoryCacher) Store(_ context.Context, key string, val *caches.Query[any]) error {
	c.init()
	res, err := val.Marshal()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.store[key] = res
	c.mu.Unlock()
	return nil
}

func (c *memoryCacher) Invalidate(_ context.Context) error {
	c.init()
	c.mu.Lock()
	c.store = make(map[string][]byte)
	c.mu.Unlock()
	return nil
}

// redisCacher shares cached query results across replicas.
type redisCacher struct {
	rdb       *_redis.Client
	cacheTime time.Duration
}

func (c *redisCacher) Get(ctx context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	res, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, _redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := q.Unmarshal([]byte(res)); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *redisCacher) Store(ctx context.Context, key string, val *caches.Query[any]) error {
	res, err := val.Marshal()
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, res, c.cacheTime).Err()
}

func (c *redisCacher) Invalidate(ctx context.Context) error {
	var (
		cursor uint64
		keys   []string
	)
	for {
		k, next, err := c.rdb.Scan(ctx, cursor, fmt.Sprintf("%s*", caches.IdentifierPrefix), 0).Result()
		if err != nil {
			return err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}
