package rabbitmq

import (
	"context"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processedEvent struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

func TestMessageEnvelope(t *testing.T) {
	msg, err := NewMessage("transaction.processed", processedEvent{TransactionID: "TXN-1", Amount: 13.5}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.ID, "msg_"))

	pub := msg.GeneratePayload()
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, msg.ID, pub.Headers["id"])

	var got processedEvent
	pattern, err := DecodeBody(pub.Body, &got)
	require.NoError(t, err)
	assert.Equal(t, "transaction.processed", pattern)
	assert.Equal(t, "TXN-1", got.TransactionID)
	assert.Equal(t, 13.5, got.Amount)

	_, err = DecodeBody([]byte("not json"), &got)
	assert.Error(t, err)
}

func TestExponentialBackoff(t *testing.T) {
	b := &exponentialBackoff{min: time.Millisecond, max: 4 * time.Millisecond, factor: 2}
	ctx := context.Background()

	for _, want := range []time.Duration{1, 2, 4, 4} {
		require.True(t, b.sleep(ctx))
		assert.Equal(t, want*time.Millisecond, b.curr)
	}

	b.reset()
	assert.Zero(t, b.curr)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	b.max = time.Hour
	b.curr = time.Hour
	assert.False(t, b.sleep(cancelled))
}

func TestNewPublisherRequiresConnection(t *testing.T) {
	_, err := NewPublisher(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestConfigURL(t *testing.T) {
	cfg := &Config{Username: "guest", Password: "p@ss/word", Host: "broker", Port: 5672}
	url := cfg.url()
	assert.True(t, strings.HasPrefix(url, "amqp://guest:"), url)
	assert.Contains(t, url, "@broker")
	assert.NotContains(t, url, "p@ss/word")

	uri, err := amqp.ParseURI(url)
	require.NoError(t, err)
	assert.Equal(t, "p@ss/word", uri.Password)
	assert.Equal(t, "broker", uri.Host)
	assert.Equal(t, 5672, uri.Port)

	cfg.URI = "amqp://other:5672/"
	assert.Equal(t, "amqp://other:5672/", cfg.url())
}
