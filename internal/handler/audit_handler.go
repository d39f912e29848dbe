package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	audit auditLister
}

// NewAuditHandler constructs AuditHandler. audit may be nil when no
// database is configured.
func NewAuditHandler(audit auditLister) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param actor query string false "Username"
// @Param action query string false "Action, e.g. PAYMENT_CREATE"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.New("AUDIT_DISABLED", http.StatusServiceUnavailable, "audit trail is not configured"))
		return
	}
	filter := models.AuditFilter{
		Actor:  strings.TrimSpace(c.Query("actor")),
		Action: strings.TrimSpace(c.Query("action")),
		Limit:  queryInt(c, "limit", 0),
	}
	logs, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs)
}
