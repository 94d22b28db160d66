// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/capitalize-ai/sales-deck/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for user ID.
	UserIDKey ContextKey = "user_id"
	// UserKey is the context key for the authenticated user.
	UserKey ContextKey = "user"
	// SessionTokenKey is the context key for the presented session token.
	SessionTokenKey ContextKey = "session_token"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session_token"

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// ErrorResponder maps err to a status code and writes the error body.
type ErrorResponder func(w http.ResponseWriter, err error)

// SessionToken extracts the session token from the cookie, falling back to
// a bearer Authorization header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Auth creates session authentication middleware.
func Auth(auth Authenticator, respond ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				respond(w, err)
				return
			}

			noteUser(r.Context(), user.ID)
			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user)
			ctx = context.WithValue(ctx, SessionTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID gets user ID from context.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetUser gets the authenticated user from context.
func GetUser(ctx context.Context) *model.User {
	if v := ctx.Value(UserKey); v != nil {
		return v.(*model.User)
	}
	return nil
}

// GetSessionToken gets the session token that authenticated the request.
func GetSessionToken(ctx context.Context) string {
	if v := ctx.Value(SessionTokenKey); v != nil {
		return v.(string)
	}
	return ""
}
