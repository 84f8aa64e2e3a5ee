package extraction

import (
	"context"
	"errors"
	"time"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	ai "voice-order/internal/pkg/ai-connector"
)

var (
	// ErrExtractionFailed covers every transcription or parsing failure.
	// Callers never see a partial result.
	ErrExtractionFailed   = errors.New("order extraction failed")
	ErrCredentialRequired = errors.New("an API key is required for external processing")
)

type Extraction struct {
	Customer            models.CustomerDetails `json:"customer"`
	Items               []models.OrderItem     `json:"items"`
	Total               float64                `json:"total"`
	SpecialInstructions *string                `json:"special_instructions,omitempty"`
}

// Pipeline turns a recording into text and text into an order.
type Pipeline interface {
	Transcribe(ctx context.Context, blob *types.AudioBlob) (string, error)
	Extract(ctx context.Context, text string) (*Extraction, error)
	Close() error
}

type Delays struct {
	Transcribe time.Duration
	Extract    time.Duration
}

// DefaultDelays is how long each mock profile pretends to work.
func DefaultDelays(mode enum.DemoModeEnum) Delays {
	if mode == enum.MODE_SIMPLE {
		return Delays{Transcribe: 2 * time.Second}
	}
	return Delays{Transcribe: 2 * time.Second, Extract: 1500 * time.Millisecond}
}

type ClientFactory func(ctx context.Context, cfg *ai.Config) (ai.IAiClient, error)

func geminiClientFactory(ctx context.Context, cfg *ai.Config) (ai.IAiClient, error) {
	return ai.NewAiClient(ctx, cfg)
}

type Factory struct {
	model     string
	newClient ClientFactory
	delays    func(enum.DemoModeEnum) Delays
}

type Option func(*Factory)

func WithClientFactory(f ClientFactory) Option {
	return func(fc *Factory) {
		fc.newClient = f
	}
}

// WithDelays replaces the mock latencies, mostly for tests.
func WithDelays(d func(enum.DemoModeEnum) Delays) Option {
	return func(fc *Factory) {
		fc.delays = d
	}
}

func NewFactory(model string, opts ...Option) *Factory {
	f := &Factory{
		model:     model,
		newClient: geminiClientFactory,
		delays:    DefaultDelays,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// For picks the pipeline a session runs. External processing only applies
// to the enhanced profile and needs the session's own API key.
func (f *Factory) For(ctx context.Context, mode enum.DemoModeEnum, useExternal bool, apiKey string) (Pipeline, error) {
	if mode != enum.MODE_ENHANCED || !useExternal {
		return NewMockPipeline(mode, f.delays(mode)), nil
	}
	if apiKey == "" {
		return nil, ErrCredentialRequired
	}

	client, err := f.newClient(ctx, &ai.Config{GeminiAPIKey: apiKey, GeminiModel: f.model})
	if err != nil {
		return nil, errors.Join(ErrExtractionFailed, err)
	}
	return NewGeminiPipeline(client), nil
}
