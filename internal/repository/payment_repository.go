package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

// PaymentRepository reads and writes folios through the backend API.
type PaymentRepository struct {
	client *upstream.Client
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(client *upstream.Client) *PaymentRepository {
	return &PaymentRepository{client: client}
}

// List returns every payment.
func (r *PaymentRepository) List(ctx context.Context, credential string) ([]models.Payment, error) {
	return r.list(ctx, "payments.list", credential, "payments/all", nil)
}

// ListByLevel returns payments of students in one education level.
func (r *PaymentRepository) ListByLevel(ctx context.Context, credential, level string) ([]models.Payment, error) {
	return r.list(ctx, "payments.by_level", credential, "payments/search", url.Values{"nivel_educativo": {level}})
}

// ListByStudentYear returns the payments of one student in one year.
func (r *PaymentRepository) ListByStudentYear(ctx context.Context, credential string, studentID, year int) ([]models.Payment, error) {
	query := url.Values{
		"student_id": {strconv.Itoa(studentID)},
		"anio_pago":  {strconv.Itoa(year)},
	}
	return r.list(ctx, "payments.student_year", credential, "payments/search", query)
}

func (r *PaymentRepository) list(ctx context.Context, op, credential, path string, query url.Values) ([]models.Payment, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, op, credential, path, query, &raw); err != nil {
		return nil, err
	}
	var payments []models.Payment
	if err := decodeList(raw, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByID scans the full list; the backend has no single-folio endpoint.
func (r *PaymentRepository) FindByID(ctx context.Context, credential, id string) (*models.Payment, error) {
	payments, err := r.List(ctx, credential)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].ID.String() == id {
			return &payments[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Folio no encontrado")
}

// Create issues a folio for one student.
func (r *PaymentRepository) Create(ctx context.Context, credential string, input models.PaymentInput) (*models.Payment, error) {
	var raw json.RawMessage
	if err := r.client.Send(ctx, "payments.create", http.MethodPost, credential, "payments/create", input, &raw); err != nil {
		return nil, err
	}
	payment := models.Payment{
		StudentID: models.FlexString(input.StudentID),
		Month:     models.FlexString(strconv.Itoa(input.Month)),
		Year:      models.FlexString(strconv.Itoa(input.Year)),
		Note:      input.Note,
		Abono:     input.Abono,
		Total:     input.Total,
	}
	if err := decodeOne(raw, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Delete removes a folio.
func (r *PaymentRepository) Delete(ctx context.Context, credential, id string) error {
	return r.client.Send(ctx, "payments.delete", http.MethodDelete, credential, "payments/delete/"+url.PathEscape(id), nil, nil)
}
