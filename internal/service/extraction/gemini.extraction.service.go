package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"

	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	ai "voice-order/internal/pkg/ai-connector"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/pkg/logger"
	"voice-order/internal/pkg/validation"
)

const transcribePrompt = "Transcribe this recording of a customer placing a food order. Return only the spoken words as plain text."

const extractPrompt = `Extract the customer and order details from this order transcript.
Use null for any customer field that is not mentioned. Prices are per unit.
Give each item a short sequential id starting at "1".

Transcript:
%s`

var orderSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"customer": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":  {Type: genai.TypeString, Nullable: true},
				"id":    {Type: genai.TypeString, Nullable: true},
				"email": {Type: genai.TypeString, Nullable: true},
			},
		},
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":       {Type: genai.TypeString},
					"name":     {Type: genai.TypeString},
					"quantity": {Type: genai.TypeInteger},
					"price":    {Type: genai.TypeNumber},
					"modifications": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"id", "name", "quantity", "price"},
			},
		},
		"total":               {Type: genai.TypeNumber},
		"specialInstructions": {Type: genai.TypeString, Nullable: true},
	},
	Required: []string{"customer", "items", "total"},
}

type geminiCustomer struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

type geminiOrder struct {
	Customer            geminiCustomer     `json:"customer"`
	Items               []models.OrderItem `json:"items" validate:"required,min=1,dive"`
	Total               float64            `json:"total"`
	SpecialInstructions string             `json:"specialInstructions"`
}

// GeminiPipeline runs both stages against the Gemini API.
type GeminiPipeline struct {
	client ai.IAiClient
}

func NewGeminiPipeline(client ai.IAiClient) *GeminiPipeline {
	return &GeminiPipeline{client: client}
}

func (g *GeminiPipeline) Transcribe(ctx context.Context, blob *types.AudioBlob) (string, error) {
	if blob == nil || len(blob.Buffer) == 0 {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, helper.ErrEmptyAudio)
	}

	res, err := g.client.GeminiPromptWithAudio(ctx, transcribePrompt, blob.MimeType, blob.Buffer)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	text := strings.TrimSpace(res.Response)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrExtractionFailed)
	}
	logger.Info.Printf("transcribed %d bytes of %s in %dms (%d tokens)", blob.Size, blob.MimeType, res.ResponseTime, res.TokenUsed)
	return text, nil
}

func (g *GeminiPipeline) Extract(ctx context.Context, text string) (*Extraction, error) {
	res, err := g.client.GeminiPromptWithSchema(ctx, fmt.Sprintf(extractPrompt, text), orderSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	out, err := ParseOrderJSON(res.Response)
	if err != nil {
		return nil, err
	}
	logger.Info.Printf("extracted %d items in %dms (%d tokens)", len(out.Items), res.ResponseTime, res.TokenUsed)
	return out, nil
}

func (g *GeminiPipeline) Close() error {
	return g.client.Close()
}

// ParseOrderJSON decodes a model response into an Extraction. The model's
// total wins when positive, otherwise it is computed from the items.
func ParseOrderJSON(raw string) (*Extraction, error) {
	var parsed geminiOrder
	if err := json.Unmarshal([]byte(helper.CleanJSONText(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	for i := range parsed.Items {
		if strings.TrimSpace(parsed.Items[i].ID) == "" {
			parsed.Items[i].ID = fmt.Sprint(i + 1)
		}
	}
	if err := validation.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	items := lo.Map(parsed.Items, func(item models.OrderItem, _ int) models.OrderItem {
		item.Name = strings.TrimSpace(item.Name)
		item.Modifications = lo.Compact(lo.Map(item.Modifications, func(m string, _ int) string {
			return strings.TrimSpace(m)
		}))
		if len(item.Modifications) == 0 {
			item.Modifications = nil
		}
		return item
	})

	total := helper.RoundCents(parsed.Total)
	if total <= 0 {
		total = helper.SumLines(items, models.OrderItem.LineTotal)
	}

	return &Extraction{
		Customer: models.CustomerDetails{
			Name:  helper.StrPtr(parsed.Customer.Name),
			ID:    helper.StrPtr(parsed.Customer.ID),
			Email: helper.StrPtr(parsed.Customer.Email),
		},
		Items:               items,
		Total:               total,
		SpecialInstructions: helper.StrPtr(parsed.SpecialInstructions),
	}, nil
}

// IsFailure reports whether err came out of a pipeline stage.
func IsFailure(err error) bool {
	return errors.Is(err, ErrExtractionFailed)
}
