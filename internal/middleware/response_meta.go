package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// Response meta fields the console reads.
const (
	MetaCacheHit       = "cache_hit"
	MetaViewSeq        = "seq"
	MetaStale          = "stale"
	MetaRequestID      = "request_id"
	MetaProcessingTime = "processing_time_ms"
)

// WithResponseMeta starts an empty meta map for the request. Handlers that
// answer with response.JSON pick it up through ExtractMeta.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta[MetaRequestID] = id
		}
		c.Set(responseMetaKey, meta)
		c.Next()
		meta = ensureMeta(c)
		if _, exists := meta[MetaProcessingTime]; !exists {
			meta[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit reports whether the listing came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[MetaCacheHit] = hit
}

// SetViewSequence reports the sequence a view load ran under and whether a
// newer load for the same view started meanwhile.
func SetViewSequence(c *gin.Context, seq uint64, stale bool) {
	meta := ensureMeta(c)
	meta[MetaViewSeq] = seq
	meta[MetaStale] = stale
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	if c != nil {
		c.Set(responseMetaKey, meta)
	}
	return meta
}
