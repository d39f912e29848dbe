package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
)

// CacheRepository persists cached listings.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps backend listings for a short TTL so repeated console
// views do not hit the backend. A nil or disabled service is a pass-through.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

var keyReplacer = strings.NewReplacer("*", "_", "?", "_", "[", "_", "]", "_", "\\", "_", ":", "_")

// ListKey builds the cache key for one listing. Parts are trimmed,
// lower-cased and stripped of glob characters, so a user-typed search value
// can never widen an invalidation pattern.
func ListKey(resource string, parts ...string) string {
	var b strings.Builder
	b.WriteString(resource)
	for _, part := range parts {
		b.WriteByte(':')
		b.WriteString(keyReplacer.Replace(strings.ToLower(strings.TrimSpace(part))))
	}
	return b.String()
}

// Get attempts to retrieve a cached entry. It returns true on a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every listing matching the patterns. All patterns are
// attempted; the failures are joined.
func (s *CacheService) Invalidate(ctx context.Context, patterns ...string) error {
	if !s.Enabled() {
		return nil
	}
	var errs []error
	for _, pattern := range patterns {
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// rememberList serves key from cache or runs load and caches its result. A
// nil result is cached as an empty list. Load errors are returned as is and
// never cached.
func rememberList[T any](ctx context.Context, cache *CacheService, key string, ttl time.Duration, load func() ([]T, error)) ([]T, bool, error) {
	var out []T
	if hit, err := cache.Get(ctx, key, &out); err == nil && hit {
		return out, true, nil
	}

	out, err := load()
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		out = []T{}
	}
	_ = cache.Set(ctx, key, out, ttl)
	return out, false, nil
}
