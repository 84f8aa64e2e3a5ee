package models

import (
	"time"

	"voice-order/internal/common/enum"
)

type CustomerDetails struct {
	Name  *string `json:"name"`
	ID    *string `json:"id"`
	Email *string `json:"email"`
}

// IsEmpty reports whether extraction has populated nothing yet.
func (c CustomerDetails) IsEmpty() bool {
	return c.Name == nil && c.ID == nil && c.Email == nil
}

type OrderItem struct {
	ID            string   `json:"id" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Quantity      int      `json:"quantity" validate:"gt=0"`
	Price         float64  `json:"price" validate:"gte=0"`
	Modifications []string `json:"modifications,omitempty"`
}

// LineTotal is price times quantity, in currency units.
func (i OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type OrderDetails struct {
	Items               []OrderItem `json:"items"`
	Total               float64     `json:"total"`
	TransactionID       *string     `json:"transaction_id"`
	TransactionStatus   *string     `json:"transaction_status"`
	CardType            *string     `json:"card_type"`
	SpecialInstructions *string     `json:"special_instructions,omitempty"`
}

type Notification struct {
	Kind    enum.NotificationKindEnum `json:"kind"`
	Message string                    `json:"message"`
	At      time.Time                 `json:"at"`
}

// Session is one order attempt flowing through the workflow. Everything in
// it is discarded on reset or when the session expires.
type Session struct {
	ID                    string             `json:"id"`
	Mode                  enum.DemoModeEnum  `json:"mode"`
	UseExternalProcessing bool               `json:"use_external_processing"`
	Step                  enum.OrderStepEnum `json:"step"`
	StepLabel             string             `json:"step_label"`
	Transcript            string             `json:"transcript"`
	Customer              CustomerDetails    `json:"customer"`
	Order                 OrderDetails       `json:"order"`
	Progress              int                `json:"progress"`
	Attempt               int                `json:"attempt"`
	TransactionInFlight   bool               `json:"transaction_in_flight"`
	HasCredential         bool               `json:"has_credential"`
	RecordingStartedAt    *time.Time         `json:"recording_started_at"`
	RecordingKey          string             `json:"recording_key,omitempty"`
	Notification          *Notification      `json:"notification"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// RecordingElapsed is the whole seconds spent recording, for display only.
func (s *Session) RecordingElapsed(now time.Time) int {
	if s.Step != enum.STEP_RECORDING || s.RecordingStartedAt == nil {
		return 0
	}
	return int(now.Sub(*s.RecordingStartedAt) / time.Second)
}
