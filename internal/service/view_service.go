package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/sequence"
)

type viewQueries interface {
	SearchStudents(ctx context.Context, sess SessionContext, field, value string) ([]models.Student, bool, error)
	ListStudents(ctx context.Context, sess SessionContext, level *string) ([]models.Student, bool, error)
	ListPayments(ctx context.Context, sess SessionContext, level *string) ([]models.PaymentView, bool, error)
	ListPaymentsForStudentYear(ctx context.Context, sess SessionContext, studentID, year string) ([]models.PaymentView, bool, error)
}

type viewUsers interface {
	List(ctx context.Context, sess SessionContext) ([]models.User, error)
}

// ViewMeta describes how a loaded view relates to other in-flight loads.
type ViewMeta struct {
	Seq      uint64
	Stale    bool
	CacheHit bool
}

// ViewService decides what each role may see and do on each screen and
// loads the rows for it.
type ViewService struct {
	queries viewQueries
	users   viewUsers
	tracker *sequence.Tracker
	logger  *zap.Logger
}

// NewViewService constructs the composer.
func NewViewService(queries viewQueries, users viewUsers, tracker *sequence.Tracker, logger *zap.Logger) *ViewService {
	if tracker == nil {
		tracker = sequence.NewTracker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{queries: queries, users: users, tracker: tracker, logger: logger}
}

// AffordancesFor returns the actions role may offer. Admins get every
// action; users may browse and print.
func AffordancesFor(role models.Role) models.Affordances {
	if role == models.RoleAdmin {
		return models.Affordances{
			CanCreateStudent: true,
			CanEditStudent:   true,
			CanDeleteStudent: true,
			CanCreatePayment: true,
			CanDeletePayment: true,
			CanPrintReceipt:  true,
			CanViewUsers:     true,
		}
	}
	return models.Affordances{CanPrintReceipt: role == models.RoleUser}
}

// Compose picks the backend query and the affordances for a view request.
// It performs no I/O.
func (s *ViewService) Compose(role models.Role, req models.ViewRequest) (models.ViewPlan, error) {
	if !role.Valid() {
		return models.ViewPlan{}, appErrors.Clone(appErrors.ErrForbidden, "rol no reconocido")
	}
	view := models.ViewName(strings.ToLower(strings.TrimSpace(string(req.View))))
	if view == "" {
		view = models.ViewStudents
	}

	plan := models.ViewPlan{View: view, Affordances: AffordancesFor(role)}
	field := strings.TrimSpace(req.SearchField)
	value := strings.TrimSpace(req.SearchValue)
	level := strings.TrimSpace(req.Level)

	switch view {
	case models.ViewStudents:
		switch {
		case field != "" && value != "":
			if !models.IsStudentSearchField(field) {
				return models.ViewPlan{}, appErrors.Clone(appErrors.ErrValidation, "campo de búsqueda no válido")
			}
			plan.Query = models.QueryStudentsSearch
			plan.Params = map[string]string{"field": field, "value": value}
		case level != "":
			plan.Query = models.QueryStudentsByLevel
			plan.Params = map[string]string{"nivel_educativo": level}
		default:
			plan.Query = models.QueryStudentsAll
		}
	case models.ViewPayments:
		studentID := strings.TrimSpace(req.StudentID)
		year := strings.TrimSpace(req.Year)
		switch {
		case isNumber(studentID) && isNumber(year):
			plan.Query = models.QueryPaymentsStudentYear
			plan.Params = map[string]string{"student_id": studentID, "anio_pago": year}
		case level != "":
			plan.Query = models.QueryPaymentsByLevel
			plan.Params = map[string]string{"nivel_educativo": level}
		default:
			plan.Query = models.QueryPaymentsAll
		}
	case models.ViewUsers:
		if !plan.Affordances.CanViewUsers {
			return models.ViewPlan{}, appErrors.Clone(appErrors.ErrForbidden, "acceso restringido a administradores")
		}
		plan.Query = models.QueryUsersAll
	default:
		return models.ViewPlan{}, appErrors.Clone(appErrors.ErrValidation, "vista no reconocida")
	}
	return plan, nil
}

// Load composes the view for the caller's role and runs its query. seq is
// the client's request sequence for this view (0 to assign one); the
// returned meta reports whether a newer load for the same view started
// meanwhile, in which case the caller should discard the rows.
func (s *ViewService) Load(ctx context.Context, sess SessionContext, req models.ViewRequest, seq uint64) (*models.ViewResult, ViewMeta, error) {
	plan, err := s.Compose(sess.Role(), req)
	if err != nil {
		return nil, ViewMeta{}, err
	}
	ticket := s.tracker.Begin(sequence.Key(sess.ID(), string(plan.View)), seq)
	meta := ViewMeta{Seq: ticket.Seq()}

	result := &models.ViewResult{Plan: plan}
	switch plan.Query {
	case models.QueryStudentsSearch:
		result.Students, meta.CacheHit, err = s.queries.SearchStudents(ctx, sess, plan.Params["field"], plan.Params["value"])
	case models.QueryStudentsByLevel:
		level := plan.Params["nivel_educativo"]
		result.Students, meta.CacheHit, err = s.queries.ListStudents(ctx, sess, &level)
	case models.QueryStudentsAll:
		result.Students, meta.CacheHit, err = s.queries.ListStudents(ctx, sess, nil)
	case models.QueryPaymentsStudentYear:
		result.Payments, meta.CacheHit, err = s.queries.ListPaymentsForStudentYear(ctx, sess, plan.Params["student_id"], plan.Params["anio_pago"])
	case models.QueryPaymentsByLevel:
		level := plan.Params["nivel_educativo"]
		result.Payments, meta.CacheHit, err = s.queries.ListPayments(ctx, sess, &level)
	case models.QueryPaymentsAll:
		result.Payments, meta.CacheHit, err = s.queries.ListPayments(ctx, sess, nil)
	case models.QueryUsersAll:
		result.Users, err = s.users.List(ctx, sess)
	}
	meta.Stale = ticket.Stale()
	if err != nil {
		s.logger.Warn("view load failed", zap.String("view", string(plan.View)), zap.String("query", string(plan.Query)), zap.Error(err))
		return nil, meta, viewNotice(plan.View, err)
	}
	return result, meta, nil
}

// viewNotice replaces backend failure messages with the screen's notice.
// Authentication, permission and validation errors keep their own message.
func viewNotice(view models.ViewName, err error) error {
	appErr := appErrors.FromError(err)
	if appErr.Code != appErrors.ErrUpstream.Code && appErr.Code != appErrors.ErrInternal.Code {
		return err
	}
	notice := noticeLoadStudents
	switch view {
	case models.ViewPayments:
		notice = noticeLoadPayments
	case models.ViewUsers:
		notice = noticeLoadUsers
	}
	if appErr.Code == appErrors.ErrUpstream.Code && appErr.Message == noticeSearchStudents {
		notice = noticeSearchStudents
	}
	return appErrors.WrapAs(err, appErrors.ErrUpstream, notice)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// Forget drops the sequence state of a session, called on logout.
func (s *ViewService) Forget(sessionID string) {
	s.tracker.Forget(sequence.Key(sessionID, ""))
}
