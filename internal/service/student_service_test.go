package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/money"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

func validStudentRequest() StudentRequest {
	return StudentRequest{
		GivenName:       "Ana",
		PaternalSurname: "Ruiz",
		MaternalSurname: "Lopez",
		BirthDate:       "2015-03-02",
		EducationLevel:  "primaria",
		Phone:           "9611234567",
		Email:           "ana@example.com",
		DueDay:          5,
		MonthlyAmount:   money.Parse("1200"),
	}
}

func TestCreateStudentStampsRegistration(t *testing.T) {
	repo := &mockStudentRepo{}
	lists := &recordingLists{}
	audit := &recordingAudit{}
	svc := NewStudentService(repo, lists, audit, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 10, 15, 17, 30, 0, 0, time.UTC) }
	svc.registryLoc = time.UTC

	result, err := svc.Create(context.Background(), newFakeSession(models.RoleAdmin), validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Primaria", repo.created[0].EducationLevel)
	assert.Equal(t, "2024-10-15", repo.created[0].RegisteredOn)
	assert.Equal(t, "17:30:00", repo.created[0].RegisteredAt)
	assert.Contains(t, lists.patterns, cacheStudentsPattern)
	assert.Equal(t, []string{models.AuditActionStudentCreate}, audit.actions())
}

func TestStudentValidation(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &recordingLists{}, nil, nil, nil, nil)
	sess := newFakeSession(models.RoleAdmin)

	cases := map[string]func(r *StudentRequest){
		"missing name":   func(r *StudentRequest) { r.GivenName = " " },
		"unknown level":  func(r *StudentRequest) { r.EducationLevel = "Doctorado" },
		"bad email":      func(r *StudentRequest) { r.Email = "no-at-sign" },
		"due day":        func(r *StudentRequest) { r.DueDay = 32 },
		"birth date":     func(r *StudentRequest) { r.BirthDate = "02/03/2015" },
		"negative money": func(r *StudentRequest) { r.MonthlyAmount = money.Parse("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validStudentRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), sess, req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestUpdateStudentOmitsRegistration(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &recordingLists{}, nil, nil, nil, nil)

	result, err := svc.Update(context.Background(), newFakeSession(models.RoleAdmin), "12", validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Empty(t, repo.updated["12"].RegisteredOn)
	assert.Empty(t, repo.updated["12"].RegisteredAt)
}

func TestUpdateStudentFailureNotice(t *testing.T) {
	repo := &mockStudentRepo{err: &upstream.StatusError{Status: http.StatusInternalServerError}}
	svc := NewStudentService(repo, &recordingLists{}, nil, nil, nil, nil)

	_, err := svc.Update(context.Background(), newFakeSession(models.RoleAdmin), "12", validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, "Error al actualizar el estudiante", appErrors.FromError(err).Message)
}

func TestDeleteStudent(t *testing.T) {
	repo := &mockStudentRepo{}
	lists := &recordingLists{}
	svc := NewStudentService(repo, lists, nil, nil, nil, nil)

	result, err := svc.Delete(context.Background(), newFakeSession(models.RoleAdmin), "4")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, []string{"4"}, repo.deleted)
	assert.Equal(t, []string{cacheStudentsPattern, cachePaymentsPattern}, lists.patterns)

	_, err = svc.Delete(context.Background(), newFakeSession(models.RoleAdmin), " ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestConcurrentCreateIsCancelled(t *testing.T) {
	repo := &mockStudentRepo{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc := NewStudentService(repo, &recordingLists{}, nil, nil, nil, nil)
	sess := newFakeSession(models.RoleAdmin)

	done := make(chan *models.SubmitResult)
	go func() {
		result, _ := svc.Create(context.Background(), sess, validStudentRequest())
		done <- result
	}()
	<-repo.entered

	second, err := svc.Create(context.Background(), sess, validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCancelled, second.Outcome)

	close(repo.block)
	first := <-done
	assert.Equal(t, models.OutcomeSuccess, first.Outcome)
	assert.Len(t, repo.created, 1)
}
