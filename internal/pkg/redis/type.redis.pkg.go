package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	_redis "github.com/redis/go-redis/v9"
)

// NilType is returned by go-redis when a key does not exist.
var NilType = _redis.Nil

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	PoolSize int
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type Client struct {
	*_redis.Client
	ctx     context.Context
	cancel  context.CancelFunc
	config  *Config
	healthy atomic.Bool
}

// IRedis is the string key-value surface the services depend on.
type IRedis interface {
	Set(key string, value any, expiration time.Duration) error
	Get(key string) (string, error)
	Del(key string) error
	Expire(key string, expiration time.Duration) error
	Ping() error
	Close() error
}

var _ IRedis = (*Client)(nil)
