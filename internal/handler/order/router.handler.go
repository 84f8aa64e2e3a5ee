package order

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc) {
	sessions := e.Group("/v1/sessions")
	sessions.POST("", h.CreateSession)

	session := sessions.Group("/:id", auth)
	session.GET("", h.GetSession)
	session.PUT("/mode", h.SetMode)
	session.POST("/recording", h.StartRecording)
	session.GET("/recording", h.RecordingURL)
	session.POST("/audio", h.SubmitAudio)
	session.POST("/text", h.SubmitText)
	session.POST("/confirm", h.Confirm)
	session.POST("/reset", h.Reset)
	session.PUT("/credential", h.SetCredential)
	session.DELETE("/credential", h.ClearCredential)
	session.GET("/stream", h.Stream)
}
