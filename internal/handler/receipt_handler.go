package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	"github.com/ivc-chiapas/folios-console/pkg/export"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

type receiptService interface {
	Render(ctx context.Context, sess service.SessionContext, paymentID string) (*export.Document, error)
	Save(ctx context.Context, sess service.SessionContext, paymentID string) (*models.SavedReceipt, error)
	Download(token string) (*export.Document, error)
}

// ReceiptHandler serves printable folio receipts.
type ReceiptHandler struct {
	receipts receiptService
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(receipts receiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Preview godoc
// @Summary Render a folio receipt
// @Description Returns the PDF inline, or as an attachment with download=true
// @Tags Receipts
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Param download query bool false "Send as attachment"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /payments/{id}/receipt [get]
func (h *ReceiptHandler) Preview(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	doc, err := h.receipts.Render(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	disposition := "inline"
	if c.Query("download") == "true" || c.Query("download") == "1" {
		disposition = "attachment"
	}
	response.Document(c, doc.ContentType, disposition, doc.Filename, doc.Bytes)
}

// Save godoc
// @Summary Save a folio receipt
// @Description Stores the rendered PDF and returns a signed, expiring download link
// @Tags Receipts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Payment ID"
// @Success 201 {object} response.Envelope
// @Router /payments/{id}/receipt [post]
func (h *ReceiptHandler) Save(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	saved, err := h.receipts.Save(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// Download godoc
// @Summary Download a saved receipt
// @Tags Receipts
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /receipts/download/{token} [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	doc, err := h.receipts.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, doc.ContentType, "attachment", doc.Filename, doc.Bytes)
}
