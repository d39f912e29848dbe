package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/export"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

type paymentQueries interface {
	ListPayments(ctx context.Context, sess service.SessionContext, level *string) ([]models.PaymentView, bool, error)
	ListPaymentsForStudentYear(ctx context.Context, sess service.SessionContext, studentID, year string) ([]models.PaymentView, bool, error)
}

type paymentCommands interface {
	Create(ctx context.Context, sess service.SessionContext, req service.PaymentRequest) (*models.SubmitResult, error)
	Delete(ctx context.Context, sess service.SessionContext, id string) (*models.SubmitResult, error)
	Export(payments []models.PaymentView, format string) (*export.Document, error)
}

// PaymentHandler exposes folio endpoints.
type PaymentHandler struct {
	queries  paymentQueries
	commands paymentCommands
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(queries paymentQueries, commands paymentCommands) *PaymentHandler {
	return &PaymentHandler{queries: queries, commands: commands}
}

// List godoc
// @Summary List folios
// @Description Filters by student and year when both are given, otherwise by education level
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Param nivel_educativo query string false "Education level"
// @Param student_id query string false "Student ID"
// @Param anio_pago query string false "Payment year"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	payments, cacheHit, err := h.load(c, sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithCache(c, http.StatusOK, payments, cacheHit)
}

// Export godoc
// @Summary Export folios as CSV or PDF
// @Tags Payments
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param nivel_educativo query string false "Education level"
// @Param student_id query string false "Student ID"
// @Param anio_pago query string false "Payment year"
// @Success 200 {file} file
// @Router /payments/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	payments, _, err := h.load(c, sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.commands.Export(payments, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, doc.ContentType, "attachment", doc.Filename, doc.Bytes)
}

// Create godoc
// @Summary Generate a folio
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.PaymentRequest true "Folio payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.commands.Create(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSubmit(c, http.StatusCreated, result)
}

// Delete godoc
// @Summary Delete a folio
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	result, err := h.commands.Delete(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSubmit(c, http.StatusOK, result)
}

func (h *PaymentHandler) load(c *gin.Context, sess service.SessionContext) ([]models.PaymentView, bool, error) {
	studentID := optionalQuery(c, "student_id")
	year := optionalQuery(c, "anio_pago")
	if studentID != nil && year != nil {
		return h.queries.ListPaymentsForStudentYear(c.Request.Context(), sess, *studentID, *year)
	}
	return h.queries.ListPayments(c.Request.Context(), sess, optionalQuery(c, "nivel_educativo"))
}
