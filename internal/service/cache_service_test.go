package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPatternRepo struct {
	*memoryCacheRepo
	fail     string
	attempts []string
}

func (r *failingPatternRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.attempts = append(r.attempts, pattern)
	if pattern == r.fail {
		return errors.New("redis down")
	}
	return r.memoryCacheRepo.DeleteByPattern(ctx, pattern)
}

func TestListKeyNormalisesParts(t *testing.T) {
	assert.Equal(t, "students:all", ListKey("students", "all"))
	assert.Equal(t, "students:search:nombre:ana lópez", ListKey("students", "search", "nombre", "  Ana López "))
	assert.Equal(t, "students:search:nombre:a__b_", ListKey("students", "search", "nombre", "a*:b?"))
}

func TestCacheServiceDisabledIsPassThrough(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, cache.Set(context.Background(), "students:all", []string{"x"}, 0))
	var out []string
	hit, err := cache.Get(context.Background(), "students:all", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.entries)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.Invalidate(context.Background(), cacheStudentsPattern))
}

func TestCacheServiceInvalidateTriesEveryPattern(t *testing.T) {
	repo := &failingPatternRepo{memoryCacheRepo: newMemoryCacheRepo(), fail: cacheStudentsPattern}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	require.NoError(t, cache.Set(context.Background(), ListKey("payments", "all"), []string{"folio"}, 0))

	err := cache.Invalidate(context.Background(), cacheStudentsPattern, cachePaymentsPattern)

	require.Error(t, err)
	assert.Equal(t, []string{cacheStudentsPattern, cachePaymentsPattern}, repo.attempts)
	assert.Empty(t, repo.entries)
}

func TestRememberListCachesEmptyResultAndSkipsErrors(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	calls := 0
	load := func() ([]string, error) {
		calls++
		return nil, nil
	}

	out, hit, err := rememberList(context.Background(), cache, "students:all", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{}, out)

	_, hit, err = rememberList(context.Background(), cache, "students:all", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)

	_, _, err = rememberList(context.Background(), cache, "payments:all", 0, func() ([]string, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	var out2 []string
	hit, _ = cache.Get(context.Background(), "payments:all", &out2)
	assert.False(t, hit)
}
