package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
)

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// Audit records an entry after each successful request, for routes whose
// handlers do not audit on their own (read-only exports).
func Audit(recorder auditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		var actor *string
		if sess, ok := CurrentSession(c); ok {
			name := sess.Username()
			actor = &name
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"query":   c.Request.URL.RawQuery,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		recorder.Record(c.Request.Context(), models.AuditLog{
			Actor:     actor,
			Action:    action,
			Resource:  resource,
			Details:   body,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
