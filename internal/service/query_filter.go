package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
)

const (
	noticeLoadStudents   = "Error al cargar los estudiantes"
	noticeSearchStudents = "Error al buscar estudiantes"
	noticeLoadPayments   = "Error al cargar los folios"
	noticeLoadUsers      = "Error al cargar los usuarios"

	cacheStudentsPattern = "students:*"
	cachePaymentsPattern = "payments:*"
)

type studentReader interface {
	List(ctx context.Context, credential string) ([]models.Student, error)
	ListByLevel(ctx context.Context, credential, level string) ([]models.Student, error)
	Search(ctx context.Context, credential, field, value string) ([]models.Student, error)
	Levels(ctx context.Context, credential string) ([]string, error)
}

type paymentReader interface {
	List(ctx context.Context, credential string) ([]models.Payment, error)
	ListByLevel(ctx context.Context, credential, level string) ([]models.Payment, error)
	ListByStudentYear(ctx context.Context, credential string, studentID, year int) ([]models.Payment, error)
}

// QueryFilter translates console filters into backend queries. Matching is
// the backend's job; results are returned as received, wholesale.
type QueryFilter struct {
	students studentReader
	payments paymentReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewQueryFilter constructs the filter. cache may be nil.
func NewQueryFilter(students studentReader, payments paymentReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *QueryFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryFilter{students: students, payments: payments, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// SearchStudents matches field=value on the backend. A blank value lists
// every student.
func (f *QueryFilter) SearchStudents(ctx context.Context, sess SessionContext, field, value string) ([]models.Student, bool, error) {
	field = strings.TrimSpace(field)
	if !models.IsStudentSearchField(field) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "campo de búsqueda no válido")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return f.ListStudents(ctx, sess, nil)
	}

	key := ListKey("students", "search", field, value)
	return cached(ctx, f, key, noticeSearchStudents, func() ([]models.Student, error) {
		return f.students.Search(ctx, sess.Credential(), field, value)
	})
}

// ListStudents lists students, optionally of one level.
func (f *QueryFilter) ListStudents(ctx context.Context, sess SessionContext, level *string) ([]models.Student, bool, error) {
	if lvl, ok := levelOf(level); ok {
		return cached(ctx, f, ListKey("students", "level", lvl), noticeLoadStudents, func() ([]models.Student, error) {
			return f.students.ListByLevel(ctx, sess.Credential(), lvl)
		})
	}
	return cached(ctx, f, ListKey("students", "all"), noticeLoadStudents, func() ([]models.Student, error) {
		return f.students.List(ctx, sess.Credential())
	})
}

// ListPayments lists payments with their computed balance, optionally of
// one level.
func (f *QueryFilter) ListPayments(ctx context.Context, sess SessionContext, level *string) ([]models.PaymentView, bool, error) {
	var (
		payments []models.Payment
		hit      bool
		err      error
	)
	if lvl, ok := levelOf(level); ok {
		payments, hit, err = cached(ctx, f, ListKey("payments", "level", lvl), noticeLoadPayments, func() ([]models.Payment, error) {
			return f.payments.ListByLevel(ctx, sess.Credential(), lvl)
		})
	} else {
		payments, hit, err = cached(ctx, f, ListKey("payments", "all"), noticeLoadPayments, func() ([]models.Payment, error) {
			return f.payments.List(ctx, sess.Credential())
		})
	}
	if err != nil {
		return nil, false, err
	}
	return models.NewPaymentViews(payments), hit, nil
}

// ListPaymentsForStudentYear scopes payments to one student and year. When
// either is missing or not numeric it falls back to listing every payment.
func (f *QueryFilter) ListPaymentsForStudentYear(ctx context.Context, sess SessionContext, studentID, year string) ([]models.PaymentView, bool, error) {
	id, idErr := strconv.Atoi(strings.TrimSpace(studentID))
	yr, yrErr := strconv.Atoi(strings.TrimSpace(year))
	if idErr != nil || yrErr != nil {
		return f.ListPayments(ctx, sess, nil)
	}

	key := ListKey("payments", "student", strconv.Itoa(id), strconv.Itoa(yr))
	payments, hit, err := cached(ctx, f, key, noticeLoadPayments, func() ([]models.Payment, error) {
		return f.payments.ListByStudentYear(ctx, sess.Credential(), id, yr)
	})
	if err != nil {
		return nil, false, err
	}
	return models.NewPaymentViews(payments), hit, nil
}

// EducationLevels returns the levels known to the backend, or the built in
// set when the backend has none or fails.
func (f *QueryFilter) EducationLevels(ctx context.Context, sess SessionContext) []string {
	levels, err := f.students.Levels(ctx, sess.Credential())
	if err != nil {
		f.logger.Warn("education levels unavailable, using defaults", zap.Error(err))
	}
	if len(levels) == 0 {
		return append([]string(nil), models.EducationLevels...)
	}
	return levels
}

// FindStudent looks a student up in the full listing.
func (f *QueryFilter) FindStudent(ctx context.Context, sess SessionContext, id string) (*models.Student, error) {
	students, _, err := f.ListStudents(ctx, sess, nil)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].ID.String() == id {
			return &students[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Estudiante no encontrado")
}

// Invalidate drops cached listings after a mutation.
func (f *QueryFilter) Invalidate(ctx context.Context, patterns ...string) {
	_ = f.cache.Invalidate(ctx, patterns...)
}

func cached[T any](ctx context.Context, f *QueryFilter, key, notice string, load func() ([]T, error)) ([]T, bool, error) {
	out, hit, err := rememberList(ctx, f.cache, key, f.cacheTTL, load)
	if err != nil {
		return nil, false, upstreamError(err, notice)
	}
	return out, hit, nil
}

func levelOf(level *string) (string, bool) {
	if level == nil {
		return "", false
	}
	lvl := strings.TrimSpace(*level)
	return lvl, lvl != ""
}
