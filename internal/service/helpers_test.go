package service

import (
	"context"
	"sync"

	"github.com/ivc-chiapas/folios-console/internal/models"
)

type fakeSession struct {
	id      string
	user    string
	role    models.Role
	cleared bool
}

func newFakeSession(role models.Role) *fakeSession {
	return &fakeSession{id: "sess-1", user: "operador", role: role}
}

func (f *fakeSession) ID() string         { return f.id }
func (f *fakeSession) Username() string   { return f.user }
func (f *fakeSession) Credential() string { return "backend-token" }
func (f *fakeSession) Role() models.Role  { return f.role }
func (f *fakeSession) Clear(context.Context) error {
	f.cleared = true
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *recordingAudit) Record(_ context.Context, entry models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type recordingLists struct {
	patterns []string
}

func (r *recordingLists) Invalidate(_ context.Context, patterns ...string) {
	r.patterns = append(r.patterns, patterns...)
}

type mockStudentRepo struct {
	all      []models.Student
	byLevel  map[string][]models.Student
	levels   []string
	err      error
	calls    []string
	created  []models.StudentInput
	updated  map[string]models.StudentInput
	deleted  []string
	block    chan struct{}
	entered  chan struct{}
	levelErr error
}

func (m *mockStudentRepo) List(context.Context, string) ([]models.Student, error) {
	m.calls = append(m.calls, "all")
	return m.all, m.err
}

func (m *mockStudentRepo) ListByLevel(_ context.Context, _ string, level string) ([]models.Student, error) {
	m.calls = append(m.calls, "level:"+level)
	return m.byLevel[level], m.err
}

func (m *mockStudentRepo) Search(_ context.Context, _ string, field, value string) ([]models.Student, error) {
	m.calls = append(m.calls, "search:"+field+"="+value)
	return m.all, m.err
}

func (m *mockStudentRepo) Levels(context.Context, string) ([]string, error) {
	return m.levels, m.levelErr
}

func (m *mockStudentRepo) Create(_ context.Context, _ string, input models.StudentInput) (*models.Student, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, input)
	return &models.Student{ID: "99", GivenName: input.GivenName, PaternalSurname: input.PaternalSurname, EducationLevel: input.EducationLevel}, nil
}

func (m *mockStudentRepo) Update(_ context.Context, _ string, id string, input models.StudentInput) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.updated == nil {
		m.updated = map[string]models.StudentInput{}
	}
	m.updated[id] = input
	return &models.Student{ID: models.FlexString(id), GivenName: input.GivenName}, nil
}

func (m *mockStudentRepo) Delete(_ context.Context, _ string, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockPaymentRepo struct {
	all         []models.Payment
	byLevel     map[string][]models.Payment
	byStudent   []models.Payment
	err         error
	calls       []string
	created     []models.PaymentInput
	deleted     []string
	block       chan struct{}
	entered     chan struct{}
	createdResp *models.Payment
}

func (m *mockPaymentRepo) List(context.Context, string) ([]models.Payment, error) {
	m.calls = append(m.calls, "all")
	return m.all, m.err
}

func (m *mockPaymentRepo) ListByLevel(_ context.Context, _ string, level string) ([]models.Payment, error) {
	m.calls = append(m.calls, "level:"+level)
	return m.byLevel[level], m.err
}

func (m *mockPaymentRepo) ListByStudentYear(_ context.Context, _ string, studentID, year int) ([]models.Payment, error) {
	m.calls = append(m.calls, "student_year")
	return m.byStudent, m.err
}

func (m *mockPaymentRepo) FindByID(_ context.Context, _ string, id string) (*models.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.all {
		if m.all[i].ID.String() == id {
			return &m.all[i], nil
		}
	}
	return nil, errNotFoundForTest
}

func (m *mockPaymentRepo) Create(_ context.Context, _ string, input models.PaymentInput) (*models.Payment, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, input)
	if m.createdResp != nil {
		return m.createdResp, nil
	}
	return &models.Payment{ID: "1", Folio: "1024", StudentID: models.FlexString(input.StudentID), Total: input.Total, Abono: input.Abono}, nil
}

func (m *mockPaymentRepo) Delete(_ context.Context, _ string, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}
