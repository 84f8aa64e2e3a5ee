package transaction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/pkg/logger"
	"voice-order/internal/pkg/validation"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var ErrInvalidRequest = errors.New("invalid transaction request")

// NewTransactionID formats TXN-<unix ms>-<9 base36 chars>.
func NewTransactionID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(idAlphabet, 9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix), nil
}

func (s *Service) delay() time.Duration {
	if s.maxDelay <= s.minDelay {
		return s.minDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minDelay + time.Duration(s.rnd.Int64N(int64(s.maxDelay-s.minDelay)))
}

func (s *Service) approve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < s.successRate
}

// Process simulates one payment attempt. The error is non-nil only for bad
// input or cancellation; a decline is a normal failed response.
func (s *Service) Process(ctx context.Context, sessionID string, req *TransactionRequest) (*TransactionResponse, error) {
	if err := validation.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	currency, err := helper.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: currency %q: %w", ErrInvalidRequest, req.Currency, err)
	}

	if err := helper.Sleep(ctx, s.delay()); err != nil {
		return nil, err
	}

	now := s.now()
	id, err := NewTransactionID(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}

	res := &TransactionResponse{
		TransactionID: id,
		Status:        enum.TRX_FAILED,
		Amount:        helper.RoundCents(req.Amount),
		Currency:      currency,
		Timestamp:     now.UTC(),
	}
	if s.approve() {
		res.Status = enum.TRX_SUCCESS
		res.CardType = helper.StrPtr("Visa")
		res.Last4 = helper.StrPtr("1234")
	}

	s.publish(ctx, &ProcessedEvent{SessionID: sessionID, Request: *req, Response: *res})
	return res, nil
}

func (s *Service) publish(ctx context.Context, evt *ProcessedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, EventsExchange, ProcessedRoute, evt); err != nil {
		logger.Warning.Printf("failed to publish %s for %s: %v", ProcessedRoute, evt.Response.TransactionID, err)
	}
}

// Record persists a processed event to the audit table.
func (s *Service) Record(ctx context.Context, evt *ProcessedEvent) error {
	if s.rp.Transaction == nil {
		return fmt.Errorf("transaction repository is not configured")
	}

	items, err := helper.JSONToByte(evt.Request.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	trx := &models.Transaction{
		TransactionID: evt.Response.TransactionID,
		SessionID:     evt.SessionID,
		Amount:        evt.Response.Amount,
		Currency:      evt.Response.Currency,
		Status:        evt.Response.Status.ToString(),
		Items:         models.JSONB(items),
		ProcessedAt:   evt.Response.Timestamp,
	}
	if evt.Request.CustomerID != nil {
		trx.CustomerID = *evt.Request.CustomerID
	}
	if evt.Response.CardType != nil {
		trx.CardType = *evt.Response.CardType
	}
	if evt.Response.Last4 != nil {
		trx.Last4 = *evt.Response.Last4
	}

	if err := s.rp.Transaction.Create(ctx, trx); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", trx.TransactionID, err)
	}
	return nil
}

// GetTransaction returns one audited attempt. Attempts of other sessions read
// as not found.
func (s *Service) GetTransaction(sessionID, transactionID string) *types.Response {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "transaction_id is required",
		})
	}
	if s.rp.Transaction == nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "Transaction history is unavailable",
		})
	}

	trx, err := s.rp.Transaction.FindByTransactionID(s.ctx, transactionID)
	if err == nil && trx.SessionID != sessionID {
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.ParseResponse(&types.Response{
				Code:    http.StatusNotFound,
				Message: "Transaction not found",
				Error:   err,
			})
		}
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to get transaction",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Transaction found",
		Data:    trx,
	})
}

func (s *Service) ListSessionTransactions(sessionID string) *types.Response {
	if s.rp.Transaction == nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "Transaction history is unavailable",
		})
	}

	trxs, err := s.rp.Transaction.FindBySessionID(s.ctx, sessionID)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list transactions",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Transactions found",
		Data:    trxs,
	})
}
