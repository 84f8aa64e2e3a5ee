package rabbitmq

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNoConnection = errors.New("rabbitmq connection is not available")

// ChannelManager hands out one channel, reopening it after the broker or the
// connection closed it.
type ChannelManager struct {
	ctx         context.Context
	connManager *ConnectionManager
	mu          sync.Mutex
	ch          *amqp.Channel
}

func NewChannelManager(ctx context.Context, connManager *ConnectionManager) *ChannelManager {
	return &ChannelManager{ctx: ctx, connManager: connManager}
}

func (m *ChannelManager) GetChannel() (*amqp.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ctx.Err(); err != nil {
		return nil, err
	}
	if m.ch != nil && !m.ch.IsClosed() {
		return m.ch, nil
	}

	conn := m.connManager.GetConnection()
	if conn == nil || conn.IsClosed() {
		return nil, ErrNoConnection
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	m.ch = ch
	return ch, nil
}

func (m *ChannelManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch == nil || m.ch.IsClosed() {
		m.ch = nil
		return nil
	}
	err := m.ch.Close()
	m.ch = nil
	return err
}
