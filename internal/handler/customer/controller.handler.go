package customer

import (
	"context"

	"github.com/gin-gonic/gin"

	types "voice-order/internal/common/type"
	customerService "voice-order/internal/service/customer"
)

type Handler struct {
	ctx             context.Context
	customerService customerService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, customerService customerService.IService) IHandler {
	return &Handler{
		ctx:             ctx,
		customerService: customerService,
	}
}

func (h *Handler) GetCustomer(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.customerService.GetCustomer(c.Param("id")))
}
