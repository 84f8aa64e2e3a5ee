package customer

import (
	"context"
	"time"

	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
)

const defaultLookupDelay = 500 * time.Millisecond

type Service struct {
	ctx         context.Context
	lookupDelay time.Duration
}

type IService interface {
	Lookup(ctx context.Context, customerID string) (*models.CustomerDetails, error)
	GetCustomer(customerID string) *types.Response
}

type Option func(*Service)

// WithLookupDelay overrides the simulated directory latency.
func WithLookupDelay(d time.Duration) Option {
	return func(s *Service) {
		s.lookupDelay = d
	}
}

func NewService(ctx context.Context, opts ...Option) IService {
	s := &Service{
		ctx:         ctx,
		lookupDelay: defaultLookupDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
