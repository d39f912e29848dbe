package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/repository"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

type mockLoginRepo struct {
	result *models.UpstreamLogin
	err    error
	calls  int
}

func (m *mockLoginRepo) Login(context.Context, string, string) (*models.UpstreamLogin, error) {
	m.calls++
	return m.result, m.err
}

func newAuthService(repo *mockLoginRepo, audit auditRecorder) (*AuthService, *repository.MemorySessionRepository) {
	sessions := repository.NewMemorySessionRepository()
	svc := NewAuthService(repo, sessions, audit, nil, nil, AuthConfig{Secret: "secret", Expiry: time.Hour, Issuer: "folios-console"})
	return svc, sessions
}

func TestLoginCreatesSessionAndToken(t *testing.T) {
	repo := &mockLoginRepo{result: &models.UpstreamLogin{Token: "backend-tok", User: models.User{ID: "4", Username: "admin", Role: models.RoleAdmin}}}
	audit := &recordingAudit{}
	svc, sessions := newAuthService(repo, audit)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: " admin ", Password: "pw", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, 1, sessions.Len())
	assert.Equal(t, []string{models.AuditActionLogin}, audit.actions())

	sess, err := svc.Resolve(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "backend-tok", sess.Credential())
	assert.Equal(t, models.RoleAdmin, sess.Role())
	assert.Equal(t, "admin", sess.Username())
}

func TestLoginValidation(t *testing.T) {
	repo := &mockLoginRepo{}
	svc, _ := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "  ", Password: "pw"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, repo.calls)
}

func TestLoginBackendRejection(t *testing.T) {
	repo := &mockLoginRepo{err: &upstream.StatusError{Status: http.StatusUnauthorized}}
	svc, sessions := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "bad"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "Credenciales incorrectas", appErr.Message)
	assert.Zero(t, sessions.Len())
}

func TestLoginBackendFailure(t *testing.T) {
	repo := &mockLoginRepo{err: &upstream.StatusError{Status: http.StatusInternalServerError}}
	svc, _ := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "pw"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, "Error en el servidor", appErr.Message)
}

func TestLoginUnknownRoleDowngraded(t *testing.T) {
	repo := &mockLoginRepo{result: &models.UpstreamLogin{Token: "tok", User: models.User{ID: "5", Username: "x", Role: "superuser"}}}
	svc, _ := newAuthService(repo, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "x", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.User.Role)
}

func TestLogoutClearsSession(t *testing.T) {
	repo := &mockLoginRepo{result: &models.UpstreamLogin{Token: "tok", User: models.User{ID: "1", Username: "caja", Role: models.RoleUser}}}
	audit := &recordingAudit{}
	svc, _ := newAuthService(repo, audit)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "caja", Password: "pw"})
	require.NoError(t, err)
	sess, err := svc.Resolve(context.Background(), resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess, models.LoginRequest{}))
	_, err = svc.Resolve(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
	assert.Equal(t, []string{models.AuditActionLogin, models.AuditActionLogout}, audit.actions())
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _ := newAuthService(&mockLoginRepo{}, nil)
	claims := &models.JWTClaims{SessionID: "s1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenExpired(t *testing.T) {
	repo := &mockLoginRepo{result: &models.UpstreamLogin{Token: "tok", User: models.User{ID: "1", Username: "a", Role: models.RoleAdmin}}}
	svc, _ := newAuthService(repo, nil)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "a", Password: "pw"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}
