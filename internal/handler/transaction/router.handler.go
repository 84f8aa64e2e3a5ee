package transaction

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc) {
	transactions := e.Group("/v1/transactions")
	transactions.GET("/:transaction_id", auth, h.GetTransaction)

	e.GET("/v1/sessions/:id/transactions", auth, h.ListSessionTransactions)
}
