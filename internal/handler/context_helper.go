package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/middleware"
	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

// sessionFromContext returns the caller's session, writing a 401 when the
// route was mounted without the JWT middleware.
func sessionFromContext(c *gin.Context) (service.SessionContext, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return sess, true
}

// optionalQuery returns a pointer to the trimmed query value, or nil when
// the parameter is absent or blank.
func optionalQuery(c *gin.Context, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

func respondWithCache(c *gin.Context, status int, data interface{}, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, status, data, middleware.ExtractMeta(c))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query(key))); err == nil {
		return v
	}
	return fallback
}
