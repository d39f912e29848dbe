package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/middleware"
	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

// ViewSeqHeader carries the client's load counter for a view.
const ViewSeqHeader = "X-View-Seq"

type viewLoader interface {
	Load(ctx context.Context, sess service.SessionContext, req models.ViewRequest, seq uint64) (*models.ViewResult, service.ViewMeta, error)
}

// ViewHandler serves composed console screens.
type ViewHandler struct {
	views viewLoader
}

// NewViewHandler constructs ViewHandler.
func NewViewHandler(views viewLoader) *ViewHandler {
	return &ViewHandler{views: views}
}

// Load godoc
// @Summary Load a console view
// @Description Picks the query for the caller's role and navigation state and returns its rows with the allowed actions. meta.stale is true when a newer load of the same view started meanwhile.
// @Tags Views
// @Security BearerAuth
// @Produce json
// @Param view query string false "students, payments or users"
// @Param nivel_educativo query string false "Education level"
// @Param field query string false "Student search field"
// @Param value query string false "Student search value"
// @Param student_id query string false "Student ID"
// @Param anio_pago query string false "Payment year"
// @Param X-View-Seq header int false "Client load counter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /views [get]
func (h *ViewHandler) Load(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.ViewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view request"))
		return
	}
	var seq uint64
	if raw := strings.TrimSpace(c.GetHeader(ViewSeqHeader)); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+ViewSeqHeader+" header"))
			return
		}
		seq = parsed
	}

	result, meta, err := h.views.Load(c.Request.Context(), sess, req, seq)
	c.Header(ViewSeqHeader, strconv.FormatUint(meta.Seq, 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetViewSequence(c, meta.Seq, meta.Stale)
	respondWithCache(c, http.StatusOK, result, meta.CacheHit)
}
