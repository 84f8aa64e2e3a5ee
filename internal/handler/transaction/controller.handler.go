package transaction

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/middleware"
	transactionService "voice-order/internal/service/transaction"
)

type Handler struct {
	ctx                context.Context
	transactionService transactionService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc)
}

func NewHandler(ctx context.Context, transactionService transactionService.IService) IHandler {
	return &Handler{
		ctx:                ctx,
		transactionService: transactionService,
	}
}

// GetTransaction only returns attempts made by the caller's session.
func (h *Handler) GetTransaction(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	auth, ok := middleware.GetAuth(c)
	if !ok {
		send(&types.Response{Code: http.StatusUnauthorized, Message: "token not found"})
		return
	}
	send(h.transactionService.GetTransaction(auth.SessionID, c.Param("transaction_id")))
}

// ListSessionTransactions returns every payment attempt of the caller's session.
func (h *Handler) ListSessionTransactions(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.transactionService.ListSessionTransactions(c.Param("id")))
}
