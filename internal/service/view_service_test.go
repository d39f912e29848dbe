package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/sequence"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

type stubUsers struct {
	users []models.User
	err   error
}

func (s *stubUsers) List(context.Context, SessionContext) ([]models.User, error) {
	return s.users, s.err
}

func TestComposeQuerySelection(t *testing.T) {
	svc := NewViewService(nil, nil, nil, nil)

	cases := []struct {
		name string
		req  models.ViewRequest
		want models.QueryKind
	}{
		{"default view", models.ViewRequest{}, models.QueryStudentsAll},
		{"students search", models.ViewRequest{View: models.ViewStudents, SearchField: "nombre", SearchValue: "Ana"}, models.QueryStudentsSearch},
		{"blank search value", models.ViewRequest{View: models.ViewStudents, SearchField: "nombre", SearchValue: " "}, models.QueryStudentsAll},
		{"students level", models.ViewRequest{View: models.ViewStudents, Level: "Primaria"}, models.QueryStudentsByLevel},
		{"payments all", models.ViewRequest{View: models.ViewPayments}, models.QueryPaymentsAll},
		{"payments level", models.ViewRequest{View: models.ViewPayments, Level: "Secundaria"}, models.QueryPaymentsByLevel},
		{"payments student year", models.ViewRequest{View: models.ViewPayments, StudentID: "7", Year: "2024"}, models.QueryPaymentsStudentYear},
		{"payments partial scope", models.ViewRequest{View: models.ViewPayments, StudentID: "7"}, models.QueryPaymentsAll},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := svc.Compose(models.RoleAdmin, tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, plan.Query)
		})
	}
}

func TestComposeAffordancesByRole(t *testing.T) {
	svc := NewViewService(nil, nil, nil, nil)

	admin, err := svc.Compose(models.RoleAdmin, models.ViewRequest{View: models.ViewPayments})
	require.NoError(t, err)
	assert.True(t, admin.Affordances.CanCreatePayment)
	assert.True(t, admin.Affordances.CanDeleteStudent)
	assert.True(t, admin.Affordances.CanViewUsers)

	user, err := svc.Compose(models.RoleUser, models.ViewRequest{View: models.ViewPayments})
	require.NoError(t, err)
	assert.Equal(t, models.Affordances{CanPrintReceipt: true}, user.Affordances)
}

func TestComposeUsersViewIsAdminOnly(t *testing.T) {
	svc := NewViewService(nil, nil, nil, nil)

	_, err := svc.Compose(models.RoleUser, models.ViewRequest{View: models.ViewUsers})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	plan, err := svc.Compose(models.RoleAdmin, models.ViewRequest{View: models.ViewUsers})
	require.NoError(t, err)
	assert.Equal(t, models.QueryUsersAll, plan.Query)
}

func TestComposeRejectsUnknownInput(t *testing.T) {
	svc := NewViewService(nil, nil, nil, nil)

	_, err := svc.Compose("guest", models.ViewRequest{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Compose(models.RoleAdmin, models.ViewRequest{View: "reports"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Compose(models.RoleAdmin, models.ViewRequest{View: models.ViewStudents, SearchField: "curp", SearchValue: "X"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoadRunsPlannedQuery(t *testing.T) {
	students := &mockStudentRepo{byLevel: map[string][]models.Student{"Primaria": {{ID: "1"}}}}
	filter := NewQueryFilter(students, &mockPaymentRepo{}, nil, 0, nil)
	svc := NewViewService(filter, &stubUsers{}, nil, nil)

	result, meta, err := svc.Load(context.Background(), newFakeSession(models.RoleUser), models.ViewRequest{View: models.ViewStudents, Level: "Primaria"}, 0)
	require.NoError(t, err)
	assert.Len(t, result.Students, 1)
	assert.Nil(t, result.Payments)
	assert.Equal(t, uint64(1), meta.Seq)
	assert.False(t, meta.Stale)
}

func TestLoadUsesViewNotice(t *testing.T) {
	failing := &upstream.StatusError{Status: http.StatusBadGateway}
	filter := NewQueryFilter(&mockStudentRepo{err: failing}, &mockPaymentRepo{err: failing}, nil, 0, nil)
	svc := NewViewService(filter, &stubUsers{err: appErrors.WrapAs(failing, appErrors.ErrUpstream, noticeLoadUsers)}, nil, nil)
	sess := newFakeSession(models.RoleAdmin)

	cases := map[models.ViewRequest]string{
		{View: models.ViewStudents}: "Error al cargar los estudiantes",
		{View: models.ViewStudents, SearchField: "nombre", SearchValue: "A"}: "Error al buscar estudiantes",
		{View: models.ViewPayments}: "Error al cargar los folios",
		{View: models.ViewUsers}:    "Error al cargar los usuarios",
	}
	for req, notice := range cases {
		result, _, err := svc.Load(context.Background(), sess, req, 0)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, notice, appErrors.FromError(err).Message)
	}
}

type staleningQueries struct {
	viewQueries
	tracker *sequence.Tracker
}

func (s *staleningQueries) ListPayments(ctx context.Context, sess SessionContext, level *string) ([]models.PaymentView, bool, error) {
	// a newer request for the same view starts while this one is running
	s.tracker.Begin(sequence.Key(sess.ID(), string(models.ViewPayments)), 0)
	return []models.PaymentView{}, false, nil
}

func TestLoadReportsStaleResponse(t *testing.T) {
	tracker := sequence.NewTracker()
	svc := NewViewService(&staleningQueries{tracker: tracker}, nil, tracker, nil)

	_, meta, err := svc.Load(context.Background(), newFakeSession(models.RoleAdmin), models.ViewRequest{View: models.ViewPayments}, 0)
	require.NoError(t, err)
	assert.True(t, meta.Stale)
}
