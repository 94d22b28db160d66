package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/identity"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// sessionCacheTTL bounds how long a validated session is trusted without
// going back to the database.
const sessionCacheTTL = 5 * time.Minute

type cachedSession struct {
	user      model.User
	expiresAt time.Time
}

// AuthService handles session establishment and validation.
type AuthService struct {
	repo     repository.Repository
	resolver identity.Resolver
	ttl      time.Duration
	cache    *gocache.Cache
	logger   *logger.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service. ttl is the lifetime of new
// sessions.
func NewAuthService(repo repository.Repository, resolver identity.Resolver, ttl time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		resolver: resolver,
		ttl:      ttl,
		cache:    gocache.New(sessionCacheTTL, 10*time.Minute),
		logger:   log,
		now:      time.Now,
	}
}

// TTL returns the lifetime of new sessions.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// CreateSession exchanges a single-use callback token for a stored session.
func (s *AuthService) CreateSession(ctx context.Context, callbackToken string) (*model.Session, *model.User, error) {
	profile, err := s.resolver.Resolve(ctx, callbackToken)
	if err != nil {
		s.logger.Warn("identity provider rejected callback", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}

	now := s.now().UTC()
	candidate := &model.User{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   profile.Picture,
		CreatedAt: now,
	}
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	user, err := s.repo.UpsertUserByEmail(ctx, candidate)
	if err != nil {
		return nil, nil, fmt.Errorf("store user: %w", err)
	}

	session := &model.Session{
		UserID:    user.ID,
		Token:     profile.SessionToken,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}
	s.remember(session, user)

	s.logger.Info("session created",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return session, user, nil
}

// Authenticate resolves a session token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	now := s.now()
	if v, ok := s.cache.Get(token); ok {
		entry := v.(cachedSession)
		if entry.expiresAt.After(now) {
			u := entry.user
			return &u, nil
		}
		s.cache.Delete(token)
	}

	session, err := s.repo.GetSession(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Expired(now) {
		return nil, ErrSessionExpired
	}

	user, err := s.repo.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	s.remember(session, user)
	return user, nil
}

func (s *AuthService) remember(session *model.Session, user *model.User) {
	d := sessionCacheTTL
	if left := session.ExpiresAt.Sub(s.now()); left < d {
		d = left
	}
	if d <= 0 {
		return
	}
	s.cache.Set(session.Token, cachedSession{user: *user, expiresAt: session.ExpiresAt}, d)
}

// Logout deletes the session. An empty token is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	s.cache.Delete(token)
	if err := s.repo.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired sessions from the database.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}
