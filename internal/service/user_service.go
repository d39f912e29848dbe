package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/internal/models"
)

type userLister interface {
	List(ctx context.Context, credential string) ([]models.User, error)
}

// UserService exposes the read-only account listing.
type UserService struct {
	repo   userLister
	logger *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userLister, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns the backend accounts.
func (s *UserService) List(ctx context.Context, sess SessionContext) ([]models.User, error) {
	users, err := s.repo.List(ctx, sess.Credential())
	if err != nil {
		s.logger.Warn("list users failed", zap.Error(err))
		return nil, upstreamError(err, noticeLoadUsers)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
