package transaction

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/repository"
)

const (
	EventsExchange  = "voice-order.events"
	ProcessedRoute  = "transaction.processed"
	AuditQueue      = "voice-order.transactions.audit"
	defaultMinDelay = time.Second
	defaultMaxDelay = 3 * time.Second
	defaultSuccess  = 0.9
)

// EventPublisher is satisfied by *rabbitmq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload any) error
}

type TransactionRequest struct {
	Amount     float64            `json:"amount" validate:"gte=0"`
	Currency   string             `json:"currency"`
	CustomerID *string            `json:"customer_id,omitempty"`
	Items      []models.OrderItem `json:"items"`
}

type TransactionResponse struct {
	TransactionID string                     `json:"transaction_id"`
	Status        enum.TransactionStatusEnum `json:"status"`
	Amount        float64                    `json:"amount"`
	Currency      string                     `json:"currency"`
	Timestamp     time.Time                  `json:"timestamp"`
	CardType      *string                    `json:"card_type,omitempty"`
	Last4         *string                    `json:"last4,omitempty"`
}

// ProcessedEvent is published once per completed attempt.
type ProcessedEvent struct {
	SessionID string              `json:"session_id"`
	Request   TransactionRequest  `json:"request"`
	Response  TransactionResponse `json:"response"`
}

type Service struct {
	ctx         context.Context
	rp          repository.IRepository
	publisher   EventPublisher
	minDelay    time.Duration
	maxDelay    time.Duration
	successRate float64
	now         func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

type IService interface {
	Process(ctx context.Context, sessionID string, req *TransactionRequest) (*TransactionResponse, error)
	Record(ctx context.Context, evt *ProcessedEvent) error
	GetTransaction(sessionID, transactionID string) *types.Response
	ListSessionTransactions(sessionID string) *types.Response
}

type Option func(*Service)

func WithDelay(minDelay, maxDelay time.Duration) Option {
	return func(s *Service) {
		s.minDelay, s.maxDelay = minDelay, maxDelay
	}
}

func WithSuccessRate(rate float64) Option {
	return func(s *Service) {
		s.successRate = rate
	}
}

func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		s.rnd = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService builds the payment simulator. publisher may be nil, in which
// case outcomes are not audited.
func NewService(ctx context.Context, rp repository.IRepository, publisher EventPublisher, opts ...Option) IService {
	s := &Service{
		ctx:         ctx,
		rp:          rp,
		publisher:   publisher,
		minDelay:    defaultMinDelay,
		maxDelay:    defaultMaxDelay,
		successRate: defaultSuccess,
		now:         time.Now,
		rnd:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
