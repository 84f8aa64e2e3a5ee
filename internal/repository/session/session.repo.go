package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-order/internal/common/models"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/pkg/redis"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "voice-order:session:"

type IRepository interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
}

// Repository keeps sessions in redis as JSON. Every save refreshes the TTL.
type Repository struct {
	rds redis.IRedis
	ttl time.Duration
}

func NewRepo(rds redis.IRedis, ttl time.Duration) IRepository {
	return &Repository{rds: rds, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *Repository) Get(_ context.Context, id string) (*models.Session, error) {
	raw, err := r.rds.Get(key(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if raw == "" {
		return nil, ErrNotFound
	}

	s, err := helper.StringToStruct[models.Session](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *Repository) Save(_ context.Context, s *models.Session) error {
	b, err := helper.JSONToByte(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.rds.Set(key(s.ID), string(b), r.ttl)
}

func (r *Repository) Delete(_ context.Context, id string) error {
	return r.rds.Del(key(id))
}
