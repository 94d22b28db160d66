// Package model defines data structures shared by the API server and the dashboard.
package model

import (
	"time"
)

// User is an authenticated account as returned by GET /api/auth/me.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
}

// Session binds an opaque session token to a user until it expires.
type Session struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"session_token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// CreateSessionRequest carries the single-use callback token.
type CreateSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// CreateSessionResponse is returned after a successful callback exchange.
type CreateSessionResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"session_token"`
}

// SuccessResponse is the body of deletes and logout.
type SuccessResponse struct {
	Success bool `json:"success"`
}
