package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/pkg/jobs"
	"github.com/ivc-chiapas/folios-console/pkg/middleware/requestid"
)

const auditJobKind = "audit.write"

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditService writes audit entries off the request path through a worker
// queue. A slow or unavailable database never delays an operator action.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService wires the queue that persists entries.
func NewAuditService(repo auditRepository, workers int, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{repo: repo, logger: logger}
	svc.queue = jobs.NewQueue("audit", svc.persist, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logger,
	})
	return svc
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending entries.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record queues entry for persistence. Entries that cannot be queued are
// logged and dropped. A nil service records nothing.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	if s == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.Details) == 0 {
		if reqID := requestid.FromContext(ctx); reqID != "" {
			entry.Details, _ = json.Marshal(map[string]string{"request_id": reqID})
		}
	}

	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Kind: auditJobKind, Payload: entry}); err != nil {
		level := s.logger.Warn
		if errors.Is(err, jobs.ErrNotStarted) {
			level = s.logger.Debug
		}
		level("audit entry dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns recent entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

func (s *AuditService) persist(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, &entry)
}

// auditDetails marshals details, ignoring values that cannot be encoded.
func auditDetails(details map[string]interface{}) []byte {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return raw
}
