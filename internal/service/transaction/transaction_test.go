package transaction

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"voice-order/internal/common/enum"
	"voice-order/internal/common/models"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/repository"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*ProcessedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, exchange, routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exchange != EventsExchange || routingKey != ProcessedRoute {
		return errors.New("unexpected route")
	}
	f.events = append(f.events, payload.(*ProcessedEvent))
	return f.err
}

type fakeTrxRepo struct {
	saved map[string]*models.Transaction
}

func (f *fakeTrxRepo) Create(_ context.Context, trx *models.Transaction) error {
	f.saved[trx.TransactionID] = trx
	return nil
}

func (f *fakeTrxRepo) FindByTransactionID(_ context.Context, id string) (*models.Transaction, error) {
	trx, ok := f.saved[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return trx, nil
}

func (f *fakeTrxRepo) FindBySessionID(_ context.Context, sessionID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, trx := range f.saved {
		if trx.SessionID == sessionID {
			out = append(out, *trx)
		}
	}
	return out, nil
}

var idPattern = regexp.MustCompile(`^TXN-\d+-[0-9a-z]{9}$`)

func newTestService(pub EventPublisher, repo *fakeTrxRepo, seed uint64) IService {
	return NewService(context.Background(), repository.IRepository{Transaction: repo}, pub,
		WithDelay(0, 0),
		WithRand(rand.New(rand.NewPCG(seed, seed))),
	)
}

func sampleRequest() *TransactionRequest {
	return &TransactionRequest{
		Amount:     13.5,
		CustomerID: helper.StrPtr("12345"),
		Items: []models.OrderItem{
			{ID: "1", Name: "Large Coffee", Quantity: 2, Price: 5},
			{ID: "2", Name: "Blueberry Muffin", Quantity: 1, Price: 3.5},
		},
	}
}

func TestProcessSuccessRate(t *testing.T) {
	svc := newTestService(nil, &fakeTrxRepo{saved: map[string]*models.Transaction{}}, 42)

	success := 0
	for i := 0; i < 1000; i++ {
		res, err := svc.Process(context.Background(), "s", sampleRequest())
		require.NoError(t, err)
		switch res.Status {
		case enum.TRX_SUCCESS:
			success++
			assert.Equal(t, "Visa", *res.CardType)
			assert.Equal(t, "1234", *res.Last4)
		case enum.TRX_FAILED:
			assert.Nil(t, res.CardType)
			assert.Nil(t, res.Last4)
		default:
			t.Fatalf("unexpected status %s", res.Status)
		}
	}
	assert.InDelta(t, 900, success, 40)
}

func TestProcessResponseShape(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeTrxRepo{saved: map[string]*models.Transaction{}}, 7)

	res, err := svc.Process(context.Background(), "session-1", sampleRequest())
	require.NoError(t, err)
	assert.Regexp(t, idPattern, res.TransactionID)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, 13.5, res.Amount)
	assert.WithinDuration(t, time.Now(), res.Timestamp, time.Minute)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "session-1", pub.events[0].SessionID)
	assert.Equal(t, res.TransactionID, pub.events[0].Response.TransactionID)
}

func TestProcessPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(pub, &fakeTrxRepo{saved: map[string]*models.Transaction{}}, 1)

	res, err := svc.Process(context.Background(), "s", sampleRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.TransactionID)
}

func TestProcessRejectsBadInput(t *testing.T) {
	svc := newTestService(nil, &fakeTrxRepo{saved: map[string]*models.Transaction{}}, 1)

	req := sampleRequest()
	req.Currency = "DOLLARS"
	_, err := svc.Process(context.Background(), "s", req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = sampleRequest()
	req.Amount = -1
	_, err = svc.Process(context.Background(), "s", req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = sampleRequest()
	req.Currency = "eur"
	res, err := svc.Process(context.Background(), "s", req)
	require.NoError(t, err)
	assert.Equal(t, "EUR", res.Currency)
}

func TestProcessHonoursCancellation(t *testing.T) {
	svc := NewService(context.Background(), repository.IRepository{}, nil, WithDelay(time.Hour, 2*time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Process(ctx, "s", sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordAndGet(t *testing.T) {
	repo := &fakeTrxRepo{saved: map[string]*models.Transaction{}}
	pub := &fakePublisher{}
	svc := newTestService(pub, repo, 3)

	_, err := svc.Process(context.Background(), "session-9", sampleRequest())
	require.NoError(t, err)
	require.Len(t, pub.events, 1)

	require.NoError(t, svc.Record(context.Background(), pub.events[0]))

	id := pub.events[0].Response.TransactionID
	res := svc.GetTransaction("session-9", id)
	require.Equal(t, http.StatusOK, res.Code)
	trx := res.Data.(*models.Transaction)
	assert.Equal(t, "session-9", trx.SessionID)
	assert.Equal(t, "12345", trx.CustomerID)
	assert.JSONEq(t, `[{"id":"1","name":"Large Coffee","quantity":2,"price":5},{"id":"2","name":"Blueberry Muffin","quantity":1,"price":3.5}]`, string(trx.Items))

	assert.Equal(t, http.StatusNotFound, svc.GetTransaction("session-other", id).Code)
	assert.Equal(t, http.StatusNotFound, svc.GetTransaction("session-9", "TXN-0-missing").Code)
	assert.Equal(t, http.StatusBadRequest, svc.GetTransaction("session-9", " ").Code)

	list := svc.ListSessionTransactions("session-9")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, list.Data, 1)
}

func TestNewTransactionID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id, err := NewTransactionID(now)
	require.NoError(t, err)
	assert.Regexp(t, `^TXN-1700000000123-[0-9a-z]{9}$`, id)
}
