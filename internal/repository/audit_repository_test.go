package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestAuditCreateAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	actor := "admin"
	entry := &models.AuditLog{Actor: &actor, Action: models.AuditActionPaymentCreate, Resource: "payments", Details: []byte(`{"folio":"1024"}`)}
	require.NoError(t, repo.Create(context.Background(), entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "actor", "action", "resource", "resource_id", "details", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "admin", models.AuditActionStudentDelete, "students", "7", []byte(`{}`), "127.0.0.1", "ua", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, actor, action, resource, resource_id, details, ip_address, user_agent, created_at FROM audit_logs WHERE actor = $1 AND action = $2 ORDER BY created_at DESC LIMIT 10")).
		WithArgs("admin", models.AuditActionStudentDelete).
		WillReturnRows(rows)

	logs, err := repo.List(context.Background(), models.AuditFilter{Actor: "admin", Action: "student_delete", Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "7", *logs[0].ResourceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListDefaultsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs ORDER BY created_at DESC LIMIT 50")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	logs, err := repo.List(context.Background(), models.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditEnsureSchema(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS audit_logs")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewAuditRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
