package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("gemini client is not configured")

// PromptResult contains the response and metadata from a prompt
type PromptResult struct {
	Response     string
	TokenUsed    int
	ResponseTime int // in milliseconds
}

type Config struct {
	GeminiAPIKey string
	GeminiModel  string
}

// IAiClient is the part of the Gemini connector the extraction pipeline uses.
type IAiClient interface {
	GeminiPrompt(ctx context.Context, prompt string) (*PromptResult, error)
	GeminiPromptWithSchema(ctx context.Context, prompt string, schema *genai.Schema) (*PromptResult, error)
	GeminiPromptWithAudio(ctx context.Context, prompt string, mimeType string, audio []byte) (*PromptResult, error)
	Close() error
}

type AiClient struct {
	geminiClient *genai.Client
	geminiModel  string
}

// NewAiClient builds a client bound to one API key. Each order session owns
// its own client, so no key is shared between callers.
func NewAiClient(ctx context.Context, cfg *Config) (*AiClient, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" || cfg.GeminiModel == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &AiClient{
		geminiClient: client,
		geminiModel:  cfg.GeminiModel,
	}, nil
}

func (a *AiClient) GeminiPrompt(ctx context.Context, prompt string) (*PromptResult, error) {
	if a.geminiClient == nil {
		return nil, ErrNotConfigured
	}

	model := a.geminiClient.GenerativeModel(a.geminiModel)
	return generate(ctx, model, genai.Text(prompt))
}

// GeminiPromptWithSchema sends a text prompt with JSON schema for structured output
func (a *AiClient) GeminiPromptWithSchema(ctx context.Context, prompt string, schema *genai.Schema) (*PromptResult, error) {
	if a.geminiClient == nil {
		return nil, ErrNotConfigured
	}

	model := a.geminiClient.GenerativeModel(a.geminiModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	return generate(ctx, model, genai.Text(prompt))
}

// GeminiPromptWithAudio sends a prompt with an inline audio recording.
func (a *AiClient) GeminiPromptWithAudio(ctx context.Context, prompt string, mimeType string, audio []byte) (*PromptResult, error) {
	if a.geminiClient == nil {
		return nil, ErrNotConfigured
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}

	model := a.geminiClient.GenerativeModel(a.geminiModel)
	return generate(ctx, model,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: audio},
	)
}

func generate(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*PromptResult, error) {
	startTime := time.Now()
	resp, err := model.GenerateContent(ctx, parts...)
	responseTime := int(time.Since(startTime).Milliseconds())

	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	tokenUsed := 0
	if resp.UsageMetadata != nil {
		tokenUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &PromptResult{
		Response:     text,
		TokenUsed:    tokenUsed,
		ResponseTime: responseTime,
	}, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("received empty or invalid response structure from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response part type")
	}
	return sb.String(), nil
}

// Close properly closes the Gemini client
func (a *AiClient) Close() error {
	if a.geminiClient != nil {
		return a.geminiClient.Close()
	}
	return nil
}
