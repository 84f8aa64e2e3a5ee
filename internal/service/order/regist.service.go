package order

import (
	"context"
	"time"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	s3aws "voice-order/internal/pkg/storage/s3"
	"voice-order/internal/repository"
	"voice-order/internal/service/customer"
	"voice-order/internal/service/extraction"
	"voice-order/internal/service/transaction"
)

// Executor runs background work. *ants.Pool satisfies it.
type Executor interface {
	Submit(task func()) error
}

type PipelineFactory interface {
	For(ctx context.Context, mode enum.DemoModeEnum, useExternal bool, apiKey string) (extraction.Pipeline, error)
}

type TokenIssuer interface {
	GenerateSessionToken(sessionID string) (string, *time.Time, error)
}

type Dependencies struct {
	Repository   repository.IRepository
	Pipelines    PipelineFactory
	Customers    customer.IService
	Transactions transaction.IService
	Executor     Executor
	// Tokens and Archive are optional.
	Tokens  TokenIssuer
	Archive s3aws.Is3
}

type Service struct {
	ctx          context.Context
	rp           repository.IRepository
	pipelines    PipelineFactory
	customers    customer.IService
	transactions transaction.IService
	executor     Executor
	tokens       TokenIssuer
	archive      s3aws.Is3

	locks       *keyedMutex
	credentials *credentialStore
	broker      *broker
	now           func() time.Time
	recordFor     func(enum.DemoModeEnum) time.Duration
	credentialTTL time.Duration
}

type IService interface {
	CreateSession(req *CreateSessionRequest) *types.Response
	GetSession(id string) *types.Response
	SetMode(id string, req *SetModeRequest) *types.Response
	StartRecording(id string) *types.Response
	SubmitAudio(id string, blob *types.AudioBlob) *types.Response
	SubmitText(id string, req *SubmitTextRequest) *types.Response
	Confirm(id string) *types.Response
	Reset(id string) *types.Response
	SetCredential(id string, req *CredentialRequest) *types.Response
	ClearCredential(id string) *types.Response
	RecordingURL(id string) *types.Response
	Subscribe(id string) (*Subscription, *types.Response)
}

type Option func(*Service)

const (
	DefaultCredentialTTL = 30 * time.Minute
	credentialSweep      = time.Minute
)

// WithCredentialTTL bounds how long an idle session keeps its API key. It
// should match the session store TTL.
func WithCredentialTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.credentialTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRecordingDuration sets how long a simulated capture runs per mode.
func WithRecordingDuration(d func(enum.DemoModeEnum) time.Duration) Option {
	return func(s *Service) {
		s.recordFor = d
	}
}

// DefaultRecordingDuration is 3s for the simple profile and 8s for enhanced.
func DefaultRecordingDuration(mode enum.DemoModeEnum) time.Duration {
	if mode == enum.MODE_SIMPLE {
		return 3 * time.Second
	}
	return 8 * time.Second
}

func NewService(ctx context.Context, deps Dependencies, opts ...Option) IService {
	s := &Service{
		ctx:          ctx,
		rp:           deps.Repository,
		pipelines:    deps.Pipelines,
		customers:    deps.Customers,
		transactions: deps.Transactions,
		executor:     deps.Executor,
		tokens:       deps.Tokens,
		archive:      deps.Archive,
		locks:        newKeyedMutex(),
		broker:       newBroker(),
		now:          time.Now,
		recordFor:    DefaultRecordingDuration,

		credentialTTL: DefaultCredentialTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.credentials = newCredentialStore(s.credentialTTL, s.now)
	go s.credentials.janitor(ctx, credentialSweep)
	return s
}

type CreateSessionRequest struct {
	Mode                  enum.DemoModeEnum `json:"mode" binding:"omitempty,enum"`
	UseExternalProcessing bool              `json:"use_external_processing"`
}

type SetModeRequest struct {
	Mode                  enum.DemoModeEnum `json:"mode" binding:"required,enum"`
	UseExternalProcessing bool              `json:"use_external_processing"`
}

type SubmitTextRequest struct {
	Text string `json:"text" binding:"required,notblank"`
}

type CredentialRequest struct {
	APIKey string `json:"api_key" binding:"required,notblank"`
}

// SessionView is the snapshot returned to clients.
type SessionView struct {
	*models.Session
	RecordingElapsed int `json:"recording_elapsed"`
}

type CreateSessionResponse struct {
	Session   SessionView `json:"session"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

type RecordingURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
