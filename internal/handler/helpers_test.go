package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/middleware"
	"github.com/ivc-chiapas/folios-console/internal/models"
)

type testSession struct {
	role models.Role
}

func (s testSession) ID() string                  { return "sess-1" }
func (s testSession) Username() string            { return "operador" }
func (s testSession) Credential() string          { return "backend-token" }
func (s testSession) Role() models.Role           { return s.role }
func (s testSession) Clear(context.Context) error { return nil }

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

// newGinContext builds a test context; role "" leaves the request
// unauthenticated.
func newGinContext(method, target string, body io.Reader, role models.Role) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		c.Set(middleware.ContextUserKey, testSession{role: role})
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}
