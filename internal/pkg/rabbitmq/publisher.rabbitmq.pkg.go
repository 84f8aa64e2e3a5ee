package rabbitmq

import (
	"context"
	"fmt"
	"sync"
)

const ExchangeKind = "topic"

// Publisher sends events to topic exchanges, declaring each exchange once.
type Publisher struct {
	channel  *ChannelManager
	mu       sync.Mutex
	declared map[string]bool
}

func NewPublisher(ctx context.Context, connManager *ConnectionManager) (*Publisher, error) {
	if connManager == nil {
		return nil, ErrNoConnection
	}
	return &Publisher{
		channel:  NewChannelManager(ctx, connManager),
		declared: make(map[string]bool),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	msg, err := NewMessage(routingKey, payload, nil)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	ch, err := p.channel.GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	p.mu.Lock()
	if !p.declared[exchange] {
		if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
		p.declared[exchange] = true
	}
	p.mu.Unlock()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg.GeneratePayload()); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}
