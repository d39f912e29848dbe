package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/export"
	"github.com/ivc-chiapas/folios-console/pkg/money"
	"github.com/ivc-chiapas/folios-console/pkg/storage"
)

type paymentFinder interface {
	FindByID(ctx context.Context, credential, id string) (*models.Payment, error)
}

type studentFinder interface {
	FindStudent(ctx context.Context, sess SessionContext, id string) (*models.Student, error)
}

type logoSource interface {
	Logo(ctx context.Context) ([]byte, error)
}

type receiptRenderer interface {
	Render(data export.ReceiptData, logo []byte) (*export.Document, error)
}

type receiptStore interface {
	Save(name string, data []byte) (storage.StoredFile, error)
	Read(name string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReceiptConfig tunes receipt persistence.
type ReceiptConfig struct {
	APIPrefix string
	Retention time.Duration
	// Location is the zone receipt dates print in. Defaults to UTC.
	Location *time.Location
}

// ReceiptService turns folios into printable receipts.
type ReceiptService struct {
	payments paymentFinder
	students studentFinder
	renderer receiptRenderer
	logos    logoSource
	store    receiptStore
	signer   *storage.SignedURLSigner
	metrics  *MetricsService
	audit    auditRecorder
	logger   *zap.Logger
	cfg      ReceiptConfig
	now      func() time.Time
}

// NewReceiptService constructs the service. store and signer may be nil, in
// which case saving receipts is unavailable.
func NewReceiptService(payments paymentFinder, students studentFinder, renderer receiptRenderer, logos logoSource, store receiptStore, signer *storage.SignedURLSigner, metrics *MetricsService, audit auditRecorder, logger *zap.Logger, cfg ReceiptConfig) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReceiptService{
		payments: payments,
		students: students,
		renderer: renderer,
		logos:    logos,
		store:    store,
		signer:   signer,
		metrics:  metrics,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Render loads a folio and renders its receipt.
func (s *ReceiptService) Render(ctx context.Context, sess SessionContext, paymentID string) (*export.Document, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id de folio requerido")
	}
	payment, err := s.payments.FindByID(ctx, sess.Credential(), paymentID)
	if err != nil {
		return nil, upstreamError(err, noticeLoadPayments)
	}
	doc, err := s.RenderPayment(ctx, sess, *payment)
	if err != nil {
		return nil, err
	}
	s.record(ctx, sess, models.AuditActionReceiptRender, paymentID, map[string]interface{}{"folio": payment.Folio.String(), "pages": doc.Pages})
	return doc, nil
}

// RenderPayment renders the receipt of an already loaded folio. The due day
// and monthly amount are taken from the student record when it can be
// found; a failed lookup only drops those lines.
func (s *ReceiptService) RenderPayment(ctx context.Context, sess SessionContext, payment models.Payment) (*export.Document, error) {
	data := s.receiptData(payment)
	if id := payment.StudentID.String(); id != "" && s.students != nil {
		if student, err := s.students.FindStudent(ctx, sess, id); err == nil {
			enrich(&data, student)
		} else {
			s.logger.Debug("receipt student lookup skipped", zap.String("student_id", id), zap.Error(err))
		}
	}

	logo, err := s.logos.Logo(ctx)
	if err != nil {
		s.metrics.RecordReceipt(0, err)
		s.logger.Error("receipt logo unavailable", zap.String("folio", data.Folio), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrRender, "")
	}

	doc, err := s.renderer.Render(data, logo)
	if err != nil {
		s.metrics.RecordReceipt(0, err)
		s.logger.Error("receipt render failed", zap.String("folio", data.Folio), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrRender, "")
	}
	s.metrics.RecordReceipt(doc.Pages, nil)
	return doc, nil
}

// Save renders a receipt, stores it and returns a signed download link.
func (s *ReceiptService) Save(ctx context.Context, sess SessionContext, paymentID string) (*models.SavedReceipt, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "receipt storage is not configured")
	}
	doc, err := s.Render(ctx, sess, paymentID)
	if err != nil {
		return nil, err
	}

	receiptID := strings.ReplaceAll(uuid.NewString(), "-", "")
	name := receiptID + "_" + doc.Filename
	stored, err := s.store.Save(name, doc.Bytes)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrRender, "")
	}
	token, expiresAt, err := s.signer.Generate(receiptID, stored.Name)
	if err != nil {
		return nil, internalError(err, "failed to sign receipt link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.record(ctx, sess, models.AuditActionReceiptSave, paymentID, map[string]interface{}{"file": stored.Name})

	return &models.SavedReceipt{
		ID:          receiptID,
		Filename:    doc.Filename,
		DownloadURL: fmt.Sprintf("%s/receipts/download/%s", prefix, token),
		ExpiresAt:   expiresAt,
		Pages:       doc.Pages,
	}, nil
}

// Download returns a saved receipt for a signed token.
func (s *ReceiptService) Download(token string) (*export.Document, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}
	claims, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.WrapAs(err, appErrors.ErrNotFound, "el enlace del recibo expiró")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrUnauthorized, "enlace de recibo no válido")
	}
	body, err := s.store.Read(claims.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.WrapAs(err, appErrors.ErrNotFound, "recibo no encontrado")
		}
		return nil, internalError(err, "failed to read receipt")
	}
	filename := strings.TrimPrefix(claims.Path, claims.ReceiptID+"_")
	return &export.Document{Filename: filename, ContentType: export.ContentTypePDF, Bytes: body}, nil
}

// Cleanup removes saved receipts older than the retention window.
func (s *ReceiptService) Cleanup() ([]string, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.CleanupOlderThan(s.cfg.Retention)
}

// StartCleanup schedules Cleanup with a cron expression. The caller stops
// the returned scheduler on shutdown.
func (s *ReceiptService) StartCleanup(schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, func() {
		removed, err := s.Cleanup()
		if err != nil {
			s.logger.Warn("receipt cleanup failed", zap.Error(err))
			return
		}
		if len(removed) > 0 {
			s.logger.Info("receipt cleanup", zap.Int("removed", len(removed)))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule receipt cleanup %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

func (s *ReceiptService) receiptData(p models.Payment) export.ReceiptData {
	created, ok := p.CreatedTimeIn(s.cfg.Location)
	if !ok {
		created = s.now().In(s.cfg.Location)
	}
	return export.ReceiptData{
		Folio:       p.Folio.String(),
		CreatedAt:   created,
		Month:       p.Month.String(),
		Year:        p.Year.String(),
		StudentName: p.StudentName(),
		Level:       p.EducationLevel,
		Tutor:       p.Tutor,
		TutorPhone:  p.TutorPhone,
		Note:        p.Note,
		Balance:     p.Balance(),
	}
}

func enrich(data *export.ReceiptData, student *models.Student) {
	if data.StudentName == "" {
		data.StudentName = student.FullName()
	}
	if data.Level == "" {
		data.Level = student.EducationLevel
	}
	if data.Tutor == "" {
		data.Tutor = student.Tutor
	}
	if data.TutorPhone == "" {
		data.TutorPhone = student.TutorPhone
	}
	data.DueDay = student.DueDay.String()
	if student.MonthlyAmount.Valid() {
		data.MonthlyAmount = money.FromDecimal(student.MonthlyAmount.Decimal())
	}
}

func (s *ReceiptService) record(ctx context.Context, sess SessionContext, action, id string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditLog{
		Actor:      actorOf(sess),
		Action:     action,
		Resource:   "receipts",
		ResourceID: &id,
		Details:    auditDetails(details),
	})
}
