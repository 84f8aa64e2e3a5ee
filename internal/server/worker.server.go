package serverApp

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"

	"voice-order/internal/pkg/logger"
	"voice-order/internal/pkg/rabbitmq"
	transactionService "voice-order/internal/service/transaction"
)

// NewTaskPool builds the pool that runs recording timers, extraction and
// payment attempts. A full pool rejects work instead of blocking a request.
func NewTaskPool(size int) (*ants.Pool, error) {
	poolOpts := ants.Options{
		ExpiryDuration: time.Hour,
		Nonblocking:    true,
		PanicHandler: func(i any) {
			logger.Error.Printf("Task panic: %v", i)
		},
	}

	pool, err := ants.NewPool(size, ants.WithOptions(poolOpts))
	if err != nil {
		return nil, fmt.Errorf("failed to create task pool: %w", err)
	}
	return pool, nil
}

// AuditHandler stores every transaction.processed event it receives.
func AuditHandler(transactions transactionService.IService) rabbitmq.MessageHandler {
	return func(ctx context.Context, msg *amqp.Delivery) error {
		var evt transactionService.ProcessedEvent
		if _, err := rabbitmq.DecodeBody(msg.Body, &evt); err != nil {
			return err
		}
		if evt.Response.TransactionID == "" {
			return fmt.Errorf("processed event without transaction id")
		}
		return transactions.Record(ctx, &evt)
	}
}

// InitWorker consumes the audit queue until ctx ends.
func InitWorker(ctx context.Context, rb *rabbitmq.ConnectionManager, transactions transactionService.IService) error {
	opts := rabbitmq.DefaultSubscribeOptions(
		transactionService.AuditQueue,
		transactionService.EventsExchange,
		transactionService.ProcessedRoute,
	)

	sub, err := rabbitmq.NewSubscriber(ctx, rb, AuditHandler(transactions), opts)
	if err != nil {
		return err
	}
	if err := sub.Start(); err != nil {
		return err
	}
	logger.Info.Printf("Audit worker consuming %s", opts.QueueName)

	<-ctx.Done()
	return sub.Stop()
}
