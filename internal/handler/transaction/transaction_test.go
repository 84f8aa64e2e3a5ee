package transaction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/jwt"
	"voice-order/internal/pkg/middleware"
	transactionService "voice-order/internal/service/transaction"
)

// ownedTransactions answers lookups for one session only.
type ownedTransactions struct {
	transactionService.IService
	owner string
	asked []string
}

func (o *ownedTransactions) GetTransaction(sessionID, transactionID string) *types.Response {
	o.asked = append(o.asked, sessionID)
	if sessionID != o.owner {
		return &types.Response{Code: http.StatusNotFound, Message: "Transaction not found"}
	}
	return &types.Response{Code: http.StatusOK, Message: "Transaction found", Data: transactionID}
}

func (o *ownedTransactions) ListSessionTransactions(sessionID string) *types.Response {
	o.asked = append(o.asked, sessionID)
	return &types.Response{Code: http.StatusOK, Message: "Transactions found", Data: []string{}}
}

func TestTransactionRoutesAreScopedToSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	signer := jwt.NewSigner("test-secret", time.Hour)
	owner, other := uuid.NewString(), uuid.NewString()
	ownerToken, _, err := signer.GenerateSessionToken(owner)
	require.NoError(t, err)
	otherToken, _, err := signer.GenerateSessionToken(other)
	require.NoError(t, err)

	svc := &ownedTransactions{owner: owner}
	e := gin.New()
	e.Use(middleware.RequestInit(), middleware.ResponseInit())
	NewHandler(context.Background(), svc).NewRoutes(e.Group("/api"), middleware.SessionAuthMiddleware(signer))

	get := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/transactions/TXN-1-abc", ""))
	assert.Equal(t, http.StatusNotFound, get("/api/v1/transactions/TXN-1-abc", otherToken))
	assert.Equal(t, http.StatusOK, get("/api/v1/transactions/TXN-1-abc", ownerToken))

	assert.Equal(t, http.StatusForbidden, get("/api/v1/sessions/"+owner+"/transactions", otherToken))
	assert.Equal(t, http.StatusOK, get("/api/v1/sessions/"+owner+"/transactions", ownerToken))

	assert.Equal(t, []string{other, owner, owner}, svc.asked)
}
