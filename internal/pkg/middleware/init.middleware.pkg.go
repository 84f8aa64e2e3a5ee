package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
	"voice-order/internal/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestInit tags every request with an id and logs it once the chain returns.
func RequestInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		logger.HTTP.WithField("request_id", requestID).Printf("%s %s %d %s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// ResponseInit installs the "send" func handlers use to write the envelope.
func ResponseInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("send", func(r *types.Response) {
			r = helper.ParseResponse(r)
			c.AbortWithStatusJSON(r.Code, helper.ToResponseAPI(r))
		})
		c.Next()
	}
}
