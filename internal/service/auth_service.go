package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/repository"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

type loginRepository interface {
	Login(ctx context.Context, username, password string) (*models.UpstreamLogin, error)
}

// AuthConfig defines configuration for console access tokens.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService signs operators in against the backend and keeps the backend
// credential server side, behind a console session.
type AuthService struct {
	repo      loginRepository
	sessions  sessionStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo loginRepository, sessions sessionStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 8 * time.Hour
	}
	return &AuthService{repo: repo, sessions: sessions, audit: audit, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates against the backend. A backend 401 is reported as
// invalid credentials; anything else as a generic server error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "usuario y contraseña son obligatorios")
	}

	result, err := s.repo.Login(ctx, req.Username, req.Password)
	if err != nil {
		if upstream.IsStatus(err, http.StatusUnauthorized) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		s.logger.Warn("backend login failed", zap.String("username", req.Username), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrUpstream, "")
	}
	if result.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "")
	}

	user := result.User
	if user.Username == "" {
		user.Username = req.Username
	}
	if !user.Role.Valid() {
		s.logger.Warn("backend returned unknown role, downgrading", zap.String("role", string(user.Role)))
		user.Role = models.RoleUser
	}

	issuedAt := s.now().UTC()
	session := &models.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID.String(),
		Username:   user.Username,
		Role:       user.Role,
		Credential: result.Token,
		CreatedAt:  issuedAt,
		ExpiresAt:  issuedAt.Add(s.config.Expiry),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, err := s.sign(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.record(ctx, models.AuditLog{
		Actor:     &session.Username,
		Action:    models.AuditActionLogin,
		Resource:  "auth",
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	})

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        user,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.WrapAs(err, appErrors.ErrSessionExpired, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Resolve turns an access token into the caller's session. The role comes
// from the stored session, not the token.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (SessionContext, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrSessionExpired, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return &storedSession{data: *session, store: s.sessions}, nil
}

// Logout clears the caller's session.
func (s *AuthService) Logout(ctx context.Context, sess SessionContext, meta models.LoginRequest) error {
	if err := sess.Clear(ctx); err != nil {
		return err
	}
	s.record(ctx, models.AuditLog{
		Actor:     actorOf(sess),
		Action:    models.AuditActionLogout,
		Resource:  "auth",
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	})
	return nil
}

func (s *AuthService) sign(session *models.Session) (string, error) {
	claims := &models.JWTClaims{
		SessionID: session.ID,
		Username:  session.Username,
		Role:      session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.UserID,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *AuthService) record(ctx context.Context, entry models.AuditLog) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}
