package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
)

func TestMemorySessionLifecycle(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()
	session := &models.Session{ID: "s1", Username: "admin", Role: models.RoleAdmin, Credential: "tok", ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, repo.Save(ctx, session))
	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Credential)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionExpiry(t *testing.T) {
	repo := NewMemorySessionRepository()
	now := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Session{ID: "s1", ExpiresAt: now.Add(time.Minute)}))
	now = now.Add(2 * time.Minute)

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = repo.Save(ctx, &models.Session{ID: "s2", ExpiresAt: now.Add(-time.Second)})
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)

	require.NoError(t, repo.Save(ctx, &models.Session{ID: "s3", ExpiresAt: now.Add(time.Hour)}))
	assert.Equal(t, 1, repo.Len())
}

func TestDecodeListRejectsScalars(t *testing.T) {
	var out []models.User
	assert.Error(t, decodeList([]byte(`42`), &out))
	assert.NoError(t, decodeList([]byte(`{"users":[{"id":1}]}`), &out))
	assert.Len(t, out, 1)
}
