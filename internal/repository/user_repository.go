package repository

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/pkg/upstream"
)

// UserRepository lists backend accounts and performs the backend login.
type UserRepository struct {
	client *upstream.Client
}

// NewUserRepository constructs the repository.
func NewUserRepository(client *upstream.Client) *UserRepository {
	return &UserRepository{client: client}
}

// List returns every account.
func (r *UserRepository) List(ctx context.Context, credential string) ([]models.User, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, "users.list", credential, "users/all", nil, &raw); err != nil {
		return nil, err
	}
	var users []models.User
	if err := decodeList(raw, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Login exchanges username and password for a backend bearer token.
func (r *UserRepository) Login(ctx context.Context, username, password string) (*models.UpstreamLogin, error) {
	body := map[string]string{"username": username, "password": password}
	var out models.UpstreamLogin
	if err := r.client.Send(ctx, "users.login", http.MethodPost, "", "users/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
