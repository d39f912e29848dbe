package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/export"
	"github.com/ivc-chiapas/folios-console/pkg/money"
	"github.com/ivc-chiapas/folios-console/pkg/sequence"
)

const (
	noticeCreatePayment = "Error al generar el folio"
	noticeDeletePayment = "Error al eliminar el folio"
)

type paymentWriter interface {
	Create(ctx context.Context, credential string, input models.PaymentInput) (*models.Payment, error)
	Delete(ctx context.Context, credential, id string) error
}

// PaymentRequest is the folio form. Month is a number 1-12 or a Spanish
// month name; a missing abono means the total was paid in full.
type PaymentRequest struct {
	StudentID models.FlexString `json:"student_id" validate:"required" swaggertype:"string"`
	Month     models.FlexString `json:"mes_pago" validate:"required" swaggertype:"string"`
	Year      models.FlexString `json:"anio_pago" swaggertype:"string"`
	Total     money.Value       `json:"total" swaggertype:"number"`
	Abono     money.Value       `json:"abono" swaggertype:"number"`
	Note      string            `json:"nota"`
}

// PaymentService handles the admin folio flows and list exports.
type PaymentService struct {
	repo      paymentWriter
	lists     listInvalidator
	audit     auditRecorder
	guard     *sequence.Guard
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentWriter, lists listInvalidator, audit auditRecorder, guard *sequence.Guard, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = sequence.NewGuard()
	}
	return &PaymentService{repo: repo, lists: lists, audit: audit, guard: guard, csv: export.NewCSVExporter(), pdf: export.NewPDFExporter(), validator: validate, logger: logger, now: time.Now}
}

// Create issues a folio for one student. A second submission for the same
// student while the first is in flight is cancelled.
func (s *PaymentService) Create(ctx context.Context, sess SessionContext, req PaymentRequest) (*models.SubmitResult, error) {
	input, err := s.input(req)
	if err != nil {
		return nil, err
	}
	release, ok := s.guard.TryAcquire(sequence.Key(sess.ID(), "payment", input.StudentID))
	if !ok {
		return models.Cancelled(), nil
	}
	defer release()

	payment, err := s.repo.Create(ctx, sess.Credential(), input)
	if err != nil {
		s.logger.Warn("create payment failed", zap.String("student_id", input.StudentID), zap.Error(err))
		return nil, upstreamError(err, noticeCreatePayment)
	}

	s.lists.Invalidate(ctx, cachePaymentsPattern)
	balance := payment.Balance()
	s.record(ctx, sess, models.AuditActionPaymentCreate, payment.ID.String(), map[string]interface{}{
		"student_id": input.StudentID,
		"folio":      payment.Folio.String(),
		"total":      money.Fixed2(balance.Total),
		"abono":      money.Fixed2(balance.Abono),
		"status":     balance.Status,
	})
	return models.Succeeded(models.PaymentView{Payment: *payment, Balance: balance}), nil
}

// Delete removes a folio.
func (s *PaymentService) Delete(ctx context.Context, sess SessionContext, id string) (*models.SubmitResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id de folio requerido")
	}
	release, ok := s.guard.TryAcquire(sequence.Key(sess.ID(), "payment-delete", id))
	if !ok {
		return models.Cancelled(), nil
	}
	defer release()

	if err := s.repo.Delete(ctx, sess.Credential(), id); err != nil {
		s.logger.Warn("delete payment failed", zap.String("payment_id", id), zap.Error(err))
		return nil, upstreamError(err, noticeDeletePayment)
	}
	s.lists.Invalidate(ctx, cachePaymentsPattern)
	s.record(ctx, sess, models.AuditActionPaymentDelete, id, nil)
	return models.Succeeded(map[string]string{"id": id}), nil
}

// Export formats accepted by PaymentService.Export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export renders a payments listing as CSV or PDF, one row per folio with
// its balance. An empty format means CSV.
func (s *PaymentService) Export(payments []models.PaymentView, format string) (*export.Document, error) {
	data := export.Dataset{
		Headers: []string{"folio", "alumno", "nivel_educativo", "mes", "anio", "total", "abono", "restante", "estado", "fecha_creacion"},
		Rows:    make([][]string, 0, len(payments)),
	}
	for _, p := range payments {
		data.Rows = append(data.Rows, []string{
			p.Folio.String(),
			p.StudentName(),
			p.EducationLevel,
			export.MonthLabel(p.Month.String()),
			p.Year.String(),
			money.Fixed2(p.Balance.Total),
			money.Fixed2(p.Balance.Abono),
			money.Fixed2(p.Balance.Remaining),
			string(p.Balance.Status),
			p.CreatedAt,
		})
	}

	base := "folios_" + s.now().Format("20060102")
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportFormatCSV:
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, internalError(err, "failed to export payments")
		}
		return &export.Document{Filename: base + ".csv", ContentType: export.ContentTypeCSV, Bytes: body, Pages: 1}, nil
	case ExportFormatPDF:
		body, pages, err := s.pdf.Render(data, "Folios")
		if err != nil {
			return nil, internalError(err, "failed to export payments")
		}
		return &export.Document{Filename: base + ".pdf", ContentType: export.ContentTypePDF, Bytes: body, Pages: pages}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "formato de exportación no válido")
	}
}

func (s *PaymentService) input(req PaymentRequest) (models.PaymentInput, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.PaymentInput{}, appErrors.WrapAs(err, appErrors.ErrValidation, "datos del folio incompletos")
	}
	studentID := strings.TrimSpace(req.StudentID.String())

	month, ok := ParseMonth(req.Month.String())
	if !ok {
		return models.PaymentInput{}, appErrors.Clone(appErrors.ErrValidation, "mes de pago no válido")
	}

	year := s.now().Year()
	if raw := strings.TrimSpace(req.Year.String()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			return models.PaymentInput{}, appErrors.Clone(appErrors.ErrValidation, "año de pago no válido")
		}
		year = parsed
	}

	if !req.Total.Valid() || !req.Total.Decimal().IsPositive() {
		return models.PaymentInput{}, appErrors.Clone(appErrors.ErrValidation, "el total debe ser mayor a cero")
	}
	total := req.Total.Decimal()
	abono := total
	if req.Abono.Valid() {
		abono = req.Abono.Decimal()
	}
	if abono.IsNegative() {
		return models.PaymentInput{}, appErrors.Clone(appErrors.ErrValidation, "el abono no puede ser negativo")
	}

	return models.PaymentInput{
		StudentID: studentID,
		Month:     month,
		Year:      year,
		Total:     money.FromDecimal(total),
		Abono:     money.FromDecimal(abono),
		Note:      strings.TrimSpace(req.Note),
	}, nil
}

func (s *PaymentService) record(ctx context.Context, sess SessionContext, action, id string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditLog{
		Actor:      actorOf(sess),
		Action:     action,
		Resource:   "payments",
		ResourceID: &id,
		Details:    auditDetails(details),
	})
}

// ParseMonth accepts 1-12 or a Spanish month name in any case.
func ParseMonth(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n >= 1 && n <= 12
	}
	for i := 1; i <= 12; i++ {
		if strings.EqualFold(export.MonthName(i), raw) {
			return i, true
		}
	}
	return 0, false
}
