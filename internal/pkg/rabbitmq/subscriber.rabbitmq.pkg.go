package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"

	"voice-order/internal/pkg/logger"
)

type MessageHandler func(ctx context.Context, msg *amqp.Delivery) error

type SubscribeOptions struct {
	QueueOpts     *QueueConfig
	QueueName     string
	Exchange      string
	BindingKey    string
	ConsumerName  string
	WorkerCount   int
	PrefetchCount int
	// A failed delivery is requeued once; the redelivery is dropped on failure.
	RequeueOnce bool
}

func DefaultSubscribeOptions(queueName, exchange, bindingKey string) *SubscribeOptions {
	return &SubscribeOptions{
		QueueName:     queueName,
		Exchange:      exchange,
		BindingKey:    bindingKey,
		ConsumerName:  queueName,
		WorkerCount:   2,
		PrefetchCount: 10,
		RequeueOnce:   true,
	}
}

type Subscriber struct {
	handler         MessageHandler
	opts            *SubscribeOptions
	ctx             context.Context
	cancel          context.CancelFunc
	channelManagers []*ChannelManager
	pool            *ants.Pool
	wg              sync.WaitGroup
	isRunning       atomic.Bool
}

func NewSubscriber(ctx context.Context, connManager *ConnectionManager, handler MessageHandler, opts *SubscribeOptions) (*Subscriber, error) {
	ctx, cancel := context.WithCancel(ctx)

	pool, err := ants.NewPool(opts.WorkerCount, ants.WithOptions(ants.Options{
		ExpiryDuration: time.Hour,
		PreAlloc:       true,
		PanicHandler: func(i any) {
			logger.Error.Printf("Subscriber %s panic: %v", opts.QueueName, i)
		},
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create subscriber pool: %w", err)
	}

	sub := &Subscriber{
		handler:         handler,
		opts:            opts,
		ctx:             ctx,
		cancel:          cancel,
		channelManagers: make([]*ChannelManager, opts.WorkerCount),
		pool:            pool,
	}
	for i := range sub.channelManagers {
		sub.channelManagers[i] = NewChannelManager(ctx, connManager)
	}

	return sub, nil
}

func (s *Subscriber) Start() error {
	if s.isRunning.Swap(true) {
		return fmt.Errorf("subscriber is already running")
	}
	for i := 0; i < s.opts.WorkerCount; i++ {
		workerID := i
		s.wg.Add(1)
		if err := s.pool.Submit(func() { s.runWorker(workerID) }); err != nil {
			s.wg.Done()
			return fmt.Errorf("failed to start worker %d: %w", workerID, err)
		}
	}
	return nil
}

func (s *Subscriber) runWorker(workerID int) {
	defer s.wg.Done()

	backoff := &exponentialBackoff{min: time.Second, max: 30 * time.Second, factor: 2}

	for s.isRunning.Load() && s.ctx.Err() == nil {
		if err := s.consume(workerID); err != nil {
			logger.Warning.Printf("Worker %d on %s: %v", workerID, s.opts.QueueName, err)
			if !backoff.sleep(s.ctx) {
				return
			}
			continue
		}
		backoff.reset()
	}
}

type exponentialBackoff struct {
	min    time.Duration
	max    time.Duration
	factor float64
	curr   time.Duration
}

// sleep waits for the next backoff step; false means ctx ended first.
func (b *exponentialBackoff) sleep(ctx context.Context) bool {
	if b.curr == 0 {
		b.curr = b.min
	} else {
		b.curr = time.Duration(float64(b.curr) * b.factor)
		if b.curr > b.max {
			b.curr = b.max
		}
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(b.curr):
		return true
	}
}

func (b *exponentialBackoff) reset() {
	b.curr = 0
}

func (s *Subscriber) declare(ch *amqp.Channel) (*amqp.Queue, error) {
	if err := ch.Qos(s.opts.PrefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	config := s.opts.QueueOpts
	if config == nil {
		config = DefaultQueueConfig()
	}

	q, err := ch.QueueDeclare(s.opts.QueueName, config.Durable, config.AutoDelete, config.Exclusive, config.NoWait, config.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if s.opts.Exchange != "" {
		if err := ch.ExchangeDeclare(s.opts.Exchange, ExchangeKind, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("failed to declare exchange: %w", err)
		}
		if err := ch.QueueBind(q.Name, s.opts.BindingKey, s.opts.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
	}
	return &q, nil
}

func (s *Subscriber) consume(workerID int) error {
	ch, err := s.channelManagers[workerID].GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	q, err := s.declare(ch)
	if err != nil {
		return err
	}

	consumerName := fmt.Sprintf("%s-%d-%d", s.opts.ConsumerName, workerID, time.Now().Unix())
	msgs, err := ch.ConsumeWithContext(s.ctx, q.Name, consumerName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for msg := range msgs {
		s.processMessage(workerID, &msg)
	}

	if s.ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("delivery channel closed")
}

func (s *Subscriber) processMessage(workerID int, msg *amqp.Delivery) {
	if err := s.handler(s.ctx, msg); err != nil {
		requeue := s.opts.RequeueOnce && !msg.Redelivered
		logger.Error.Printf("Worker %d failed to handle message %s (requeue=%t): %v", workerID, msg.MessageId, requeue, err)
		if nackErr := msg.Nack(false, requeue); nackErr != nil {
			logger.Error.Printf("Failed to nack message %s: %v", msg.MessageId, nackErr)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error.Printf("Failed to ack message %s: %v", msg.MessageId, err)
	}
}

func (s *Subscriber) Stop() error {
	if !s.isRunning.Swap(false) {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for workers to stop")
	}

	for i, ch := range s.channelManagers {
		if err := ch.Close(); err != nil {
			logger.Error.Printf("Error closing channel for worker %d: %v", i, err)
		}
	}

	s.pool.Release()
	return nil
}

func (s *Subscriber) IsHealthy() bool {
	return s.isRunning.Load() && s.pool.Running() > 0
}
