package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/middleware/requestid"
)

type memoryAuditRepo struct {
	mu       sync.Mutex
	logs     []models.AuditLog
	failures int
	listErr  error
	filter   models.AuditFilter
}

func (m *memoryAuditRepo) Create(_ context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("connection reset")
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memoryAuditRepo) List(_ context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	m.filter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return nil, nil
}

func (m *memoryAuditRepo) stored() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.logs...)
}

func TestAuditServicePersistsQueuedEntries(t *testing.T) {
	repo := &memoryAuditRepo{failures: 1}
	svc := NewAuditService(repo, 2, nil)
	svc.Start(context.Background())

	ctx := requestid.WithValue(context.Background(), "req-42")
	svc.Record(ctx, models.AuditLog{Action: models.AuditActionLogin, Resource: "session"})
	svc.Record(ctx, models.AuditLog{Action: models.AuditActionLogout, Resource: "session", Details: []byte(`{"k":"v"}`)})
	svc.Stop()

	stored := repo.stored()
	require.Len(t, stored, 2)
	byAction := map[string]models.AuditLog{}
	for _, entry := range stored {
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
		byAction[entry.Action] = entry
	}

	var details map[string]string
	require.NoError(t, json.Unmarshal(byAction[models.AuditActionLogin].Details, &details))
	assert.Equal(t, "req-42", details["request_id"])
	assert.JSONEq(t, `{"k":"v"}`, string(byAction[models.AuditActionLogout].Details))
}

func TestAuditServiceDropsWhenNotStarted(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewAuditService(repo, 1, nil)

	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionLogin})
	assert.Empty(t, repo.stored())
}

func TestAuditServiceList(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewAuditService(repo, 1, nil)

	logs, err := svc.List(context.Background(), models.AuditFilter{Actor: "operador", Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Equal(t, "operador", repo.filter.Actor)

	repo.listErr = errors.New("db down")
	_, err = svc.List(context.Background(), models.AuditFilter{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
