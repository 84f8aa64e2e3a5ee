package extraction

import (
	"context"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
)

const (
	SimpleTranscript   = "Hi, I'd like to order two large margherita pizzas with extra cheese, one Caesar salad, and three Coca-Colas. Please make sure the pizzas are well done. That's for delivery to 123 Main Street."
	EnhancedTranscript = "Mock transcription: Customer 12345, John, ordered 2 large coffees for $5 each and 1 blueberry muffin for $3.50. Please add extra foam to the coffees."
)

func simpleOrder() *Extraction {
	items := []models.OrderItem{
		{ID: "1", Name: "Large Margherita Pizza", Quantity: 2, Price: 18.99, Modifications: []string{"Extra cheese", "Well done"}},
		{ID: "2", Name: "Caesar Salad", Quantity: 1, Price: 12.50},
		{ID: "3", Name: "Coca-Cola", Quantity: 3, Price: 2.99},
	}
	return &Extraction{
		Items:               items,
		Total:               helper.SumLines(items, models.OrderItem.LineTotal),
		SpecialInstructions: helper.StrPtr("Delivery to 123 Main Street"),
	}
}

func enhancedOrder() *Extraction {
	return &Extraction{
		Customer: models.CustomerDetails{
			Name:  helper.StrPtr("John Smith"),
			ID:    helper.StrPtr("12345"),
			Email: helper.StrPtr("john.smith@email.com"),
		},
		Items: []models.OrderItem{
			{ID: "1", Name: "Large Coffee", Quantity: 2, Price: 5.00, Modifications: []string{"Extra foam"}},
			{ID: "2", Name: "Blueberry Muffin", Quantity: 1, Price: 3.50},
		},
		Total:               13.50,
		SpecialInstructions: helper.StrPtr("Extra foam on coffees"),
	}
}

// MockPipeline returns canned data for its profile after fixed delays. The
// input is ignored.
type MockPipeline struct {
	mode   enum.DemoModeEnum
	delays Delays
}

func NewMockPipeline(mode enum.DemoModeEnum, delays Delays) *MockPipeline {
	return &MockPipeline{mode: mode, delays: delays}
}

func (m *MockPipeline) Transcribe(ctx context.Context, _ *types.AudioBlob) (string, error) {
	if err := helper.Sleep(ctx, m.delays.Transcribe); err != nil {
		return "", err
	}
	if m.mode == enum.MODE_SIMPLE {
		return SimpleTranscript, nil
	}
	return EnhancedTranscript, nil
}

func (m *MockPipeline) Extract(ctx context.Context, _ string) (*Extraction, error) {
	if err := helper.Sleep(ctx, m.delays.Extract); err != nil {
		return nil, err
	}
	if m.mode == enum.MODE_SIMPLE {
		return simpleOrder(), nil
	}
	return enhancedOrder(), nil
}

func (m *MockPipeline) Close() error {
	return nil
}
