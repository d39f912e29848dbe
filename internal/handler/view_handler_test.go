package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
)

type fakeViewLoader struct {
	req  models.ViewRequest
	seq  uint64
	meta service.ViewMeta
	err  error
}

func (f *fakeViewLoader) Load(_ context.Context, sess service.SessionContext, req models.ViewRequest, seq uint64) (*models.ViewResult, service.ViewMeta, error) {
	f.req, f.seq = req, seq
	if f.err != nil {
		return nil, f.meta, f.err
	}
	plan := models.ViewPlan{View: req.View, Query: models.QueryPaymentsStudentYear, Affordances: service.AffordancesFor(sess.Role())}
	return &models.ViewResult{Plan: plan, Payments: []models.PaymentView{}}, f.meta, nil
}

func TestViewHandlerLoad(t *testing.T) {
	loader := &fakeViewLoader{meta: service.ViewMeta{Seq: 4, Stale: true, CacheHit: true}}
	handler := NewViewHandler(loader)
	c, rec := newGinContext(http.MethodGet, "/views?view=payments&student_id=7&anio_pago=2024", nil, models.RoleUser)
	c.Request.Header.Set(ViewSeqHeader, "4")

	handler.Load(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ViewPayments, loader.req.View)
	assert.Equal(t, "7", loader.req.StudentID)
	assert.Equal(t, "2024", loader.req.Year)
	assert.Equal(t, uint64(4), loader.seq)
	assert.Equal(t, "4", rec.Header().Get(ViewSeqHeader))

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["stale"])
	assert.Equal(t, float64(4), envelope.Meta["seq"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, string(envelope.Data), `"payments":[]`)
	assert.Contains(t, string(envelope.Data), `"students":null`)
}

func TestViewHandlerRejectsBadSequence(t *testing.T) {
	loader := &fakeViewLoader{}
	handler := NewViewHandler(loader)
	c, rec := newGinContext(http.MethodGet, "/views?view=students", nil, models.RoleUser)
	c.Request.Header.Set(ViewSeqHeader, "abc")

	handler.Load(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, loader.req.View)
}

func TestViewHandlerForbidden(t *testing.T) {
	handler := NewViewHandler(&fakeViewLoader{err: appErrors.ErrForbidden})
	c, rec := newGinContext(http.MethodGet, "/views?view=users", nil, models.RoleUser)

	handler.Load(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
