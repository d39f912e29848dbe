package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved session.
const ContextUserKey = "currentUser"

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (service.SessionContext, error)
}

// JWT protects routes by requiring a valid access token bound to a live
// session.
func JWT(auth sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		sess, err := auth.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session stored by JWT.
func CurrentSession(c *gin.Context) (service.SessionContext, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(service.SessionContext)
	return sess, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
