package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds console credentials, forwarded to the backend.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the console access token and the signed-in user.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        User      `json:"user"`
}

// Session is what the console remembers about a login. Credential is the
// backend bearer token and never leaves the server.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	Credential string    `json:"credential"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// JWTClaims is the payload of console access tokens.
type JWTClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// UpstreamLogin is the backend's answer to a successful login.
type UpstreamLogin struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
