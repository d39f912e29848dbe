package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/ivc-chiapas/folios-console/internal/models"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

// SessionContext is the authenticated caller, resolved once per request and
// passed explicitly to every service call that reaches the backend.
type SessionContext interface {
	ID() string
	Username() string
	Credential() string
	Role() models.Role
	Clear(ctx context.Context) error
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type storedSession struct {
	data  models.Session
	store sessionStore
}

func (s *storedSession) ID() string         { return s.data.ID }
func (s *storedSession) Username() string   { return s.data.Username }
func (s *storedSession) Credential() string { return s.data.Credential }
func (s *storedSession) Role() models.Role  { return s.data.Role }

// Clear removes the session from the store. Later requests carrying the same
// token are rejected.
func (s *storedSession) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.data.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	return nil
}

func actorOf(sess SessionContext) *string {
	if sess == nil {
		return nil
	}
	name := sess.Username()
	return &name
}

// upstreamError maps a backend failure onto the console error set. notice
// is the message shown to the operator for failures the operator cannot fix.
func upstreamError(err error, notice string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusUnauthorized:
			return appErrors.WrapAs(err, appErrors.ErrSessionExpired, "")
		case http.StatusForbidden:
			return appErrors.WrapAs(err, appErrors.ErrForbidden, "")
		case http.StatusNotFound:
			return appErrors.WrapAs(err, appErrors.ErrNotFound, notice)
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return appErrors.WrapAs(err, appErrors.ErrValidation, notice)
		}
	}
	return appErrors.WrapAs(err, appErrors.ErrUpstream, notice)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
