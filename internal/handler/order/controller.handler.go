package order

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
	orderService "voice-order/internal/service/order"
)

type Handler struct {
	ctx           context.Context
	orderService  orderService.IService
	maxAudioBytes int64
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc)
}

func NewHandler(ctx context.Context, orderService orderService.IService, maxAudioBytes int64) IHandler {
	return &Handler{
		ctx:           ctx,
		orderService:  orderService,
		maxAudioBytes: maxAudioBytes,
	}
}

func badRequest(message string, err error) *types.Response {
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusBadRequest,
		Message: message,
		Error:   err,
	})
}

// CreateSession starts a new order session and returns its bearer token.
func (h *Handler) CreateSession(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req orderService.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			send(badRequest("Invalid request body", err))
			return
		}
	}

	send(h.orderService.CreateSession(&req))
}

func (h *Handler) GetSession(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.orderService.GetSession(c.Param("id")))
}

func (h *Handler) SetMode(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req orderService.SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(badRequest("Invalid request body", err))
		return
	}

	send(h.orderService.SetMode(c.Param("id"), &req))
}

func (h *Handler) StartRecording(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.orderService.StartRecording(c.Param("id")))
}

// SubmitAudio accepts the captured recording as the multipart field "audio".
func (h *Handler) SubmitAudio(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	// Leave room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAudioBytes+1<<20)

	header, err := c.FormFile("audio")
	if err != nil {
		send(badRequest("audio file is required", err))
		return
	}
	file, err := header.Open()
	if err != nil {
		send(badRequest("Failed to read audio file", err))
		return
	}
	defer file.Close()

	blob, err := helper.ReadAudioUpload(types.UploadFile{File: file, Header: header}, h.maxAudioBytes)
	if err != nil {
		send(badRequest("Invalid audio file", err))
		return
	}

	send(h.orderService.SubmitAudio(c.Param("id"), blob))
}

func (h *Handler) SubmitText(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req orderService.SubmitTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(badRequest("Invalid request body", err))
		return
	}

	send(h.orderService.SubmitText(c.Param("id"), &req))
}

func (h *Handler) Confirm(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.orderService.Confirm(c.Param("id")))
}

func (h *Handler) Reset(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.orderService.Reset(c.Param("id")))
}

func (h *Handler) SetCredential(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req orderService.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(badRequest("Invalid request body", err))
		return
	}

	send(h.orderService.SetCredential(c.Param("id"), &req))
}

func (h *Handler) ClearCredential(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.orderService.ClearCredential(c.Param("id")))
}

func (h *Handler) RecordingURL(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.orderService.RecordingURL(c.Param("id")))
}
