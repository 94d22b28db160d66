// Package repository provides persistence for users, sessions and the
// sales records they own.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/capitalize-ai/sales-deck/internal/model"
)

// ErrNotFound is returned when a record does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// Repository defines the persistence operations of the API server. Every
// record lookup is scoped to the owning user.
type Repository interface {
	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// UpsertUserByEmail stores u unless a user with the same email exists,
	// and returns the stored user either way.
	UpsertUserByEmail(ctx context.Context, u *model.User) (*model.User, error)

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// CreateSession stores a session, replacing one with the same token.
	CreateSession(ctx context.Context, s *model.Session) error

	// GetSession retrieves a session by token.
	GetSession(ctx context.Context, token string) (*model.Session, error)

	// DeleteSession removes a session. Deleting an unknown token is not an error.
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes sessions that expired before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreateClient(ctx context.Context, c *model.Client) error
	ListClients(ctx context.Context, userID string) ([]model.Client, error)
	GetClient(ctx context.Context, userID, id string) (*model.Client, error)
	UpdateClient(ctx context.Context, c *model.Client) error
	DeleteClient(ctx context.Context, userID, id string) error

	CreateAsset(ctx context.Context, a *model.Asset) error
	// ListAssets returns the user's assets; an empty assetType matches all.
	ListAssets(ctx context.Context, userID string, assetType model.AssetType) ([]model.Asset, error)
	DeleteAsset(ctx context.Context, userID, id string) error

	CreateLead(ctx context.Context, l *model.Lead) error
	ListLeads(ctx context.Context, userID string) ([]model.Lead, error)
	GetLead(ctx context.Context, userID, id string) (*model.Lead, error)
	UpdateLead(ctx context.Context, l *model.Lead) error
	DeleteLead(ctx context.Context, userID, id string) error

	CreateDeck(ctx context.Context, d *model.Deck) error
	ListDecks(ctx context.Context, userID string) ([]model.Deck, error)
	GetDeck(ctx context.Context, userID, id string) (*model.Deck, error)
}
