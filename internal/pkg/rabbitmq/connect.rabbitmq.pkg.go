package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"voice-order/internal/pkg/logger"
)

const (
	connectionName = "voice-order"
	heartbeat      = 10 * time.Second
)

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	// URI wins over the individual fields when set.
	URI string
}

// url builds the broker address. Credentials are escaped by amqp.URI.
func (c *Config) url() string {
	if c.URI != "" {
		return c.URI
	}
	return amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		Vhost:    "/",
	}.String()
}

type QueueConfig struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{Durable: true}
}

// ConnectionManager owns the single broker connection of the process and
// redials it in the background whenever the broker drops it.
type ConnectionManager struct {
	url    string
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	conn        *amqp.Connection
	isConnected bool
}

func NewConnectionManager(ctx context.Context, config *Config) (*ConnectionManager, error) {
	ctx, cancel := context.WithCancel(ctx)

	cm := &ConnectionManager{
		url:    config.url(),
		ctx:    ctx,
		cancel: cancel,
	}

	closed, err := cm.dial()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	go cm.watch(closed)

	return cm, nil
}

// dial opens a connection and returns the channel that reports its loss.
func (cm *ConnectionManager) dial() (<-chan *amqp.Error, error) {
	if err := cm.ctx.Err(); err != nil {
		return nil, err
	}

	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(connectionName)

	conn, err := amqp.DialConfig(cm.url, amqp.Config{
		Heartbeat:  heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	cm.mu.Lock()
	cm.conn = conn
	cm.isConnected = true
	cm.mu.Unlock()

	return conn.NotifyClose(make(chan *amqp.Error, 1)), nil
}

func (cm *ConnectionManager) watch(closed <-chan *amqp.Error) {
	backoff := &exponentialBackoff{min: time.Second, max: 30 * time.Second, factor: 2}

	for {
		select {
		case <-cm.ctx.Done():
			return
		case err, ok := <-closed:
			if !ok && cm.ctx.Err() != nil {
				return
			}
			cm.mu.Lock()
			cm.isConnected = false
			cm.mu.Unlock()
			logger.Warning.Printf("RabbitMQ connection lost: %v. Reconnecting...", err)
		}

		for {
			if !backoff.sleep(cm.ctx) {
				return
			}
			next, err := cm.dial()
			if err != nil {
				logger.Warning.Printf("RabbitMQ reconnect failed: %v", err)
				continue
			}
			closed = next
			backoff.reset()
			logger.Info.Println("Reconnected to RabbitMQ")
			break
		}
	}
}

func (cm *ConnectionManager) GetConnection() *amqp.Connection {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.ctx.Err() != nil {
		return nil
	}
	return cm.conn
}

func (cm *ConnectionManager) Close() error {
	cm.cancel()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.isConnected = false
	if cm.conn == nil {
		return nil
	}
	conn := cm.conn
	cm.conn = nil
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (cm *ConnectionManager) IsClosed() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.ctx.Err() != nil || !cm.isConnected
}
