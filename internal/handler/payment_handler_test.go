package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	"github.com/ivc-chiapas/folios-console/pkg/export"
	"github.com/ivc-chiapas/folios-console/pkg/money"
)

type fakePaymentQueries struct {
	calls    []string
	payments []models.PaymentView
}

func (f *fakePaymentQueries) ListPayments(_ context.Context, _ service.SessionContext, level *string) ([]models.PaymentView, bool, error) {
	if level == nil {
		f.calls = append(f.calls, "all")
	} else {
		f.calls = append(f.calls, "level:"+*level)
	}
	return f.payments, false, nil
}

func (f *fakePaymentQueries) ListPaymentsForStudentYear(_ context.Context, _ service.SessionContext, studentID, year string) ([]models.PaymentView, bool, error) {
	f.calls = append(f.calls, "student:"+studentID+"/"+year)
	return f.payments, false, nil
}

type fakePaymentCommands struct {
	created  service.PaymentRequest
	result   *models.SubmitResult
	exported []models.PaymentView
	format   string
}

func (f *fakePaymentCommands) Create(_ context.Context, _ service.SessionContext, req service.PaymentRequest) (*models.SubmitResult, error) {
	f.created = req
	return f.result, nil
}

func (f *fakePaymentCommands) Delete(context.Context, service.SessionContext, string) (*models.SubmitResult, error) {
	return f.result, nil
}

func (f *fakePaymentCommands) Export(payments []models.PaymentView, format string) (*export.Document, error) {
	f.exported = payments
	f.format = format
	return &export.Document{Filename: "folios_20241015.csv", ContentType: export.ContentTypeCSV, Bytes: []byte("folio\n")}, nil
}

func TestPaymentHandlerListRouting(t *testing.T) {
	cases := []struct {
		target string
		call   string
	}{
		{"/payments", "all"},
		{"/payments?nivel_educativo=Secundaria", "level:Secundaria"},
		{"/payments?student_id=7&anio_pago=2024", "student:7/2024"},
		{"/payments?student_id=7&nivel_educativo=Primaria", "level:Primaria"},
	}
	for _, tc := range cases {
		queries := &fakePaymentQueries{}
		handler := NewPaymentHandler(queries, nil)
		c, rec := newGinContext(http.MethodGet, tc.target, nil, models.RoleUser)

		handler.List(c)

		assert.Equal(t, http.StatusOK, rec.Code, tc.target)
		assert.Equal(t, []string{tc.call}, queries.calls, tc.target)
	}
}

func TestPaymentHandlerListIncludesBalance(t *testing.T) {
	p := models.Payment{ID: "1", Folio: "1024", Abono: money.Parse("500"), Total: money.Parse("1200")}
	queries := &fakePaymentQueries{payments: models.NewPaymentViews([]models.Payment{p})}
	handler := NewPaymentHandler(queries, nil)
	c, rec := newGinContext(http.MethodGet, "/payments", nil, models.RoleUser)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"status":"PARTIAL"`)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["cache_hit"])
}

func TestPaymentHandlerExport(t *testing.T) {
	queries := &fakePaymentQueries{payments: []models.PaymentView{{}}}
	commands := &fakePaymentCommands{}
	handler := NewPaymentHandler(queries, commands)
	c, rec := newGinContext(http.MethodGet, "/payments/export?nivel_educativo=Primaria&format=csv", nil, models.RoleAdmin)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="folios_20241015.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Len(t, commands.exported, 1)
	assert.Equal(t, "csv", commands.format)
	assert.Equal(t, []string{"level:Primaria"}, queries.calls)
}

func TestPaymentHandlerCreate(t *testing.T) {
	commands := &fakePaymentCommands{result: models.Succeeded(models.PaymentView{})}
	handler := NewPaymentHandler(nil, commands)
	c, rec := newGinContext(http.MethodPost, "/payments", strings.NewReader(`{"student_id":7,"mes_pago":"octubre","total":1200}`), models.RoleAdmin)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "7", commands.created.StudentID.String())
	assert.Equal(t, "octubre", commands.created.Month.String())
	assert.False(t, commands.created.Abono.Valid())
}
