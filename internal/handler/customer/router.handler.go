package customer

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	customers := e.Group("/v1/customers")
	customers.GET("/:id", h.GetCustomer)
}
