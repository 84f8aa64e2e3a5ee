package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/jwt"
)

const AuthKey = "auth"

type TokenValidator interface {
	ValidateSessionToken(token string) (*types.SessionAuth, error)
}

// SessionAuthMiddleware requires a bearer session token. When the route has
// an :id param the token must belong to that session.
func SessionAuthMiddleware(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		send := c.MustGet("send").(func(r *types.Response))

		token := bearerToken(c)
		if token == "" {
			send(&types.Response{Code: http.StatusUnauthorized, Message: "token not found"})
			return
		}

		auth, err := v.ValidateSessionToken(token)
		if err != nil {
			send(&types.Response{Code: http.StatusUnauthorized, Message: "invalid token", Error: jwt.ErrInvalidToken})
			return
		}

		if id := c.Param("id"); id != "" && id != auth.SessionID {
			send(&types.Response{Code: http.StatusForbidden, Message: "token does not match session"})
			return
		}

		c.Set(AuthKey, *auth)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on a websocket upgrade, so the token query param is accepted too.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return header
	}
	return c.Query("token")
}

// GetAuth returns the session identity stored by SessionAuthMiddleware.
func GetAuth(c *gin.Context) (types.SessionAuth, bool) {
	v, ok := c.Get(AuthKey)
	if !ok {
		return types.SessionAuth{}, false
	}
	auth, ok := v.(types.SessionAuth)
	return auth, ok
}

var _ TokenValidator = (*jwt.Signer)(nil)
