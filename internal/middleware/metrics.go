package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/service"
)

const (
	groupUnmatched = "unmatched"
	groupSystem    = "system"
)

// Metrics records request metrics labelled by console resource group
// (students, payments, receipts, views, ...). Scrapes of the metrics and
// health endpoints are not counted.
func Metrics(metricsSvc *service.MetricsService, apiPrefix string) gin.HandlerFunc {
	prefix := "/" + strings.Trim(apiPrefix, "/")
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		group := RouteGroup(prefix, route)
		if group == groupSystem {
			return
		}
		if route == "" {
			route = groupUnmatched
		}
		metricsSvc.ObserveHTTPRequest(group, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// RouteGroup names the resource a matched route belongs to: the first path
// segment after prefix. Routes outside prefix are "system"; requests that
// matched no route are "unmatched" so arbitrary paths cannot blow up label
// cardinality.
func RouteGroup(prefix, route string) string {
	if route == "" {
		return groupUnmatched
	}
	rest, ok := strings.CutPrefix(route, prefix)
	if !ok {
		return groupSystem
	}
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return groupSystem
	}
	group, _, _ := strings.Cut(rest, "/")
	return group
}
