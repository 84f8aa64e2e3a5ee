package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_redis "github.com/redis/go-redis/v9"

	"voice-order/internal/pkg/logger"
)

const monitorInterval = 5 * time.Second

func Setup(ctx context.Context, config *Config) (*Client, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	r := &Client{
		Client: _redis.NewClient(&_redis.Options{
			Addr:     config.Addr(),
			Username: config.Username,
			Password: config.Password,
			PoolSize: config.PoolSize,
		}),
		cancel: cancel,
		ctx:    clientCtx,
		config: config,
	}

	if err := r.Client.Ping(clientCtx).Err(); err != nil {
		cancel()
		_ = r.Client.Close()
		logger.Error.Println(err)
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr(), err)
	}
	r.healthy.Store(true)

	go r.monitor()

	return r, nil
}

// Ping reports whether the server answers.
func (r *Client) Ping() error {
	return r.Client.Ping(r.ctx).Err()
}

// monitor logs when the server goes away and comes back. The pool itself
// redials on demand, so nothing is rebuilt here.
func (r *Client) monitor() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			err := r.Ping()
			switch {
			case err != nil && r.healthy.Swap(false):
				logger.Warning.Printf("redis connection lost: %v", err)
			case err == nil && !r.healthy.Swap(true):
				logger.Info.Println("redis connection restored")
			}
		}
	}
}

// Healthy is the result of the last background ping.
func (r *Client) Healthy() bool {
	return r.healthy.Load()
}

// Close stops the monitor and closes the pool.
func (r *Client) Close() error {
	r.cancel()
	return r.Client.Close()
}

// encode stores strings and bytes as-is and everything else as JSON.
func encode(value any) (any, error) {
	switch v := value.(type) {
	case string, []byte:
		return v, nil
	}
	return json.Marshal(value)
}

// Set stores a key-value pair with an expiration time.
func (r *Client) Set(key string, value any, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}
	if err := r.Client.Set(r.ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get returns "" with no error for a missing key.
func (r *Client) Get(key string) (string, error) {
	result, err := r.Client.Get(r.ctx, key).Result()
	if errors.Is(err, NilType) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return result, nil
}

func (r *Client) Del(key string) error {
	if err := r.Client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (r *Client) Expire(key string, expiration time.Duration) error {
	if err := r.Client.Expire(r.ctx, key, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set expiration on key %s: %w", key, err)
	}
	return nil
}
