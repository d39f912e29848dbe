package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/money"
	"github.com/ivc-chiapas/folios-console/pkg/sequence"
)

const (
	noticeCreateStudent = "Error al agregar estudiante"
	noticeUpdateStudent = "Error al actualizar el estudiante"
	noticeDeleteStudent = "Error al eliminar estudiante"
)

type studentWriter interface {
	Create(ctx context.Context, credential string, input models.StudentInput) (*models.Student, error)
	Update(ctx context.Context, credential, id string, input models.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, credential, id string) error
}

type listInvalidator interface {
	Invalidate(ctx context.Context, patterns ...string)
}

// StudentRequest holds the editable student fields.
type StudentRequest struct {
	GivenName       string      `json:"nombre" validate:"required"`
	PaternalSurname string      `json:"apellido_paterno" validate:"required"`
	MaternalSurname string      `json:"apellido_materno" validate:"required"`
	BirthDate       string      `json:"fecha_nacimiento" validate:"required,datetime=2006-01-02"`
	EducationLevel  string      `json:"nivel_educativo" validate:"required,education_level"`
	Phone           string      `json:"telefono" validate:"required"`
	Email           string      `json:"email" validate:"omitempty,email"`
	Tutor           string      `json:"tutor"`
	TutorPhone      string      `json:"numero_telefonico_tutor"`
	DueDay          int         `json:"dia_pago" validate:"omitempty,min=1,max=31"`
	MonthlyAmount   money.Value `json:"monto_mensual" swaggertype:"number"`
}

// StudentService handles the admin student flows.
type StudentService struct {
	repo        studentWriter
	lists       listInvalidator
	audit       auditRecorder
	guard       *sequence.Guard
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	registryLoc *time.Location
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentWriter, lists listInvalidator, audit auditRecorder, guard *sequence.Guard, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	RegisterRules(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = sequence.NewGuard()
	}
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		loc = time.UTC
	}
	return &StudentService{repo: repo, lists: lists, audit: audit, guard: guard, validator: validate, logger: logger, now: time.Now, registryLoc: loc}
}

// WithLocation sets the zone registration stamps are taken in.
func (s *StudentService) WithLocation(loc *time.Location) *StudentService {
	if loc != nil {
		s.registryLoc = loc
	}
	return s
}

// Create registers a student, stamping the registration date and time.
func (s *StudentService) Create(ctx context.Context, sess SessionContext, req StudentRequest) (*models.SubmitResult, error) {
	input, err := s.input(req)
	if err != nil {
		return nil, err
	}
	release, ok := s.guard.TryAcquire(sequence.Key(sess.ID(), "student", "new"))
	if !ok {
		return models.Cancelled(), nil
	}
	defer release()

	now := s.now().In(s.registryLoc)
	input.RegisteredOn = now.Format("2006-01-02")
	input.RegisteredAt = now.Format("15:04:05")

	student, err := s.repo.Create(ctx, sess.Credential(), input)
	if err != nil {
		s.logger.Warn("create student failed", zap.Error(err))
		return nil, upstreamError(err, noticeCreateStudent)
	}
	s.afterMutation(ctx, sess, models.AuditActionStudentCreate, student.ID.String(), map[string]interface{}{"nombre": student.FullName()})
	return models.Succeeded(student), nil
}

// Update replaces the editable fields. Registration date and time are
// never sent on update.
func (s *StudentService) Update(ctx context.Context, sess SessionContext, id string, req StudentRequest) (*models.SubmitResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id de estudiante requerido")
	}
	input, err := s.input(req)
	if err != nil {
		return nil, err
	}
	release, ok := s.guard.TryAcquire(sequence.Key(sess.ID(), "student", id))
	if !ok {
		return models.Cancelled(), nil
	}
	defer release()

	student, err := s.repo.Update(ctx, sess.Credential(), id, input)
	if err != nil {
		s.logger.Warn("update student failed", zap.String("student_id", id), zap.Error(err))
		return nil, upstreamError(err, noticeUpdateStudent)
	}
	s.afterMutation(ctx, sess, models.AuditActionStudentUpdate, id, nil)
	return models.Succeeded(student), nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, sess SessionContext, id string) (*models.SubmitResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id de estudiante requerido")
	}
	release, ok := s.guard.TryAcquire(sequence.Key(sess.ID(), "student", id))
	if !ok {
		return models.Cancelled(), nil
	}
	defer release()

	if err := s.repo.Delete(ctx, sess.Credential(), id); err != nil {
		s.logger.Warn("delete student failed", zap.String("student_id", id), zap.Error(err))
		return nil, upstreamError(err, noticeDeleteStudent)
	}
	s.afterMutation(ctx, sess, models.AuditActionStudentDelete, id, nil)
	return models.Succeeded(map[string]string{"id": id}), nil
}

func (s *StudentService) input(req StudentRequest) (models.StudentInput, error) {
	req.GivenName = strings.TrimSpace(req.GivenName)
	req.PaternalSurname = strings.TrimSpace(req.PaternalSurname)
	req.MaternalSurname = strings.TrimSpace(req.MaternalSurname)
	req.Email = strings.TrimSpace(req.Email)
	req.EducationLevel = strings.TrimSpace(req.EducationLevel)
	if err := s.validator.Struct(req); err != nil {
		return models.StudentInput{}, appErrors.WrapAs(err, appErrors.ErrValidation, "datos del estudiante incompletos o inválidos")
	}
	if req.MonthlyAmount.Decimal().IsNegative() {
		return models.StudentInput{}, appErrors.Clone(appErrors.ErrValidation, "el monto mensual no puede ser negativo")
	}

	return models.StudentInput{
		GivenName:       req.GivenName,
		PaternalSurname: req.PaternalSurname,
		MaternalSurname: req.MaternalSurname,
		BirthDate:       req.BirthDate,
		EducationLevel:  canonicalLevel(req.EducationLevel),
		Phone:           strings.TrimSpace(req.Phone),
		Email:           req.Email,
		Tutor:           strings.TrimSpace(req.Tutor),
		TutorPhone:      strings.TrimSpace(req.TutorPhone),
		DueDay:          req.DueDay,
		MonthlyAmount:   money.FromDecimal(req.MonthlyAmount.Decimal()),
	}, nil
}

func (s *StudentService) afterMutation(ctx context.Context, sess SessionContext, action, id string, details map[string]interface{}) {
	s.lists.Invalidate(ctx, cacheStudentsPattern, cachePaymentsPattern)
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditLog{
		Actor:      actorOf(sess),
		Action:     action,
		Resource:   "students",
		ResourceID: &id,
		Details:    auditDetails(details),
	})
}

func canonicalLevel(level string) string {
	for _, known := range models.EducationLevels {
		if strings.EqualFold(known, level) {
			return known
		}
	}
	return level
}
