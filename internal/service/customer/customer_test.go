package customer

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order/internal/common/models"
	"voice-order/internal/pkg/helper"
)

func newTestService() IService {
	return NewService(context.Background(), WithLookupDelay(0))
}

func TestLookup(t *testing.T) {
	svc := newTestService()

	got, err := svc.Lookup(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", *got.Name)
	assert.Equal(t, "john.smith@email.com", *got.Email)

	got, err = svc.Lookup(context.Background(), " 67890 ")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", *got.Name)

	_, err = svc.Lookup(context.Background(), "00000")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestGetCustomer(t *testing.T) {
	svc := newTestService()

	res := svc.GetCustomer("67890")
	assert.Equal(t, http.StatusOK, res.Code)
	p := res.Data.(*Profile)
	assert.Equal(t, "+1-555-0456", p.Phone)
	assert.Equal(t, "456 Oak Avenue, Somewhere, ST 67890", p.Address)

	res = svc.GetCustomer("nope")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestEnrich(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	partial := models.CustomerDetails{ID: helper.StrPtr("12345"), Name: helper.StrPtr("John")}
	got := Enrich(ctx, svc, partial)
	assert.Equal(t, "John", *got.Name)
	assert.Equal(t, "john.smith@email.com", *got.Email)

	unknown := models.CustomerDetails{ID: helper.StrPtr("99999")}
	assert.Equal(t, unknown, Enrich(ctx, svc, unknown))

	assert.True(t, Enrich(ctx, svc, models.CustomerDetails{}).IsEmpty())
}
