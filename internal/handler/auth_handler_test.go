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
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
)

type fakeAuthService struct {
	loginReq  models.LoginRequest
	loginResp *models.LoginResponse
	loginErr  error
	loggedOut bool
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	return f.loginResp, f.loginErr
}

func (f *fakeAuthService) Logout(context.Context, service.SessionContext, models.LoginRequest) error {
	f.loggedOut = true
	return nil
}

type fakeForgetter struct {
	forgotten []string
}

func (f *fakeForgetter) Forget(sessionID string) {
	f.forgotten = append(f.forgotten, sessionID)
}

func TestAuthHandlerLoginInvalidPayload(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{}, nil)
	c, rec := newGinContext(http.MethodPost, "/auth/login", strings.NewReader("{"), "")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	svc := &fakeAuthService{loginResp: &models.LoginResponse{AccessToken: "jwt", ExpiresIn: 3600, User: models.User{Username: "operador", Role: models.RoleAdmin}}}
	handler := NewAuthHandler(svc, nil)
	c, rec := newGinContext(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"operador","password":"secreta"}`), "")
	c.Request.Header.Set("User-Agent", "console-test")

	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console-test", svc.loginReq.UserAgent)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"access_token":"jwt"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "")}, nil)
	c, rec := newGinContext(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"operador","password":"mala"}`), "")

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Credenciales incorrectas", decodeEnvelope(t, rec).Error["message"])
}

func TestAuthHandlerLogout(t *testing.T) {
	svc := &fakeAuthService{}
	views := &fakeForgetter{}
	handler := NewAuthHandler(svc, views)

	c, rec := newGinContext(http.MethodPost, "/auth/logout", nil, "")
	handler.Logout(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, svc.loggedOut)

	c, _ = newGinContext(http.MethodPost, "/auth/logout", nil, models.RoleUser)
	handler.Logout(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.True(t, svc.loggedOut)
	assert.Equal(t, []string{"sess-1"}, views.forgotten)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{}, nil)
	c, rec := newGinContext(http.MethodGet, "/auth/me", nil, models.RoleUser)

	handler.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	body := string(decodeEnvelope(t, rec).Data)
	assert.Contains(t, body, `"role":"user"`)
	assert.Contains(t, body, `"can_print_receipt":true`)
	assert.Contains(t, body, `"can_create_payment":false`)
}
