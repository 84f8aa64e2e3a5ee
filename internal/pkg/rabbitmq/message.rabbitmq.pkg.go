package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Message struct {
	ID          string     `json:"id"`
	Body        []byte     `json:"content"`
	Headers     amqp.Table `json:"headers,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	ContentType string     `json:"content_type"`
}

// PubsubBody is the envelope every event travels in.
type PubsubBody struct {
	Pattern string `json:"type"`
	Data    any    `json:"data"`
	ID      string `json:"id"`
}

func NewMessage(pattern string, payload any, headers *amqp.Table) (*Message, error) {
	gid, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("msg_%s_%d", gid, time.Now().Unix())

	body, err := json.Marshal(PubsubBody{Pattern: pattern, Data: payload, ID: id})
	if err != nil {
		return nil, err
	}

	if headers == nil {
		headers = &amqp.Table{}
	}

	return &Message{
		ID:          id,
		Body:        body,
		Headers:     *headers,
		Timestamp:   time.Now(),
		ContentType: "application/json",
	}, nil
}

func (m *Message) GeneratePayload() amqp.Publishing {
	m.Headers["id"] = m.ID

	return amqp.Publishing{
		ContentType:  m.ContentType,
		Body:         m.Body,
		MessageId:    m.ID,
		Timestamp:    m.Timestamp,
		DeliveryMode: amqp.Persistent,
		Headers:      m.Headers,
	}
}

// DecodeBody unwraps a delivery published through NewMessage into target.
func DecodeBody(body []byte, target any) (string, error) {
	var envelope struct {
		Pattern string          `json:"type"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("failed to decode envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return envelope.Pattern, fmt.Errorf("failed to decode %s payload: %w", envelope.Pattern, err)
	}
	return envelope.Pattern, nil
}
