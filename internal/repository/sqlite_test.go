package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-deck/internal/deck"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "test.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertUserByEmail_KeepsExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	first, err := s.UpsertUserByEmail(ctx, &model.User{ID: "u1", Email: "ada@example.com", Name: "Ada", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "u1", first.ID)

	second, err := s.UpsertUserByEmail(ctx, &model.User{ID: "u2", Email: "ada@example.com", Name: "Other", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "u1", second.ID)
	assert.Equal(t, "Ada", second.Name)

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	_, err = s.GetUser(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateSession(ctx, &model.Session{UserID: "u1", Token: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	require.NoError(t, s.CreateSession(ctx, &model.Session{UserID: "u1", Token: "old", ExpiresAt: now.Add(-time.Hour), CreatedAt: now}))

	sess, err := s.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.False(t, sess.Expired(now))

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSession(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteSession(ctx, "live"))
	require.NoError(t, s.DeleteSession(ctx, "live"))
	_, err = s.GetSession(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClients_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateClient(ctx, &model.Client{ID: "c1", UserID: "u1", Name: "Acme", Industry: "Fintech", Description: "d", CreatedAt: now}))
	require.NoError(t, s.CreateClient(ctx, &model.Client{ID: "c2", UserID: "u1", Name: "Globex", Industry: "Energy", Description: "d", CreatedAt: now.Add(time.Millisecond)}))
	require.NoError(t, s.CreateClient(ctx, &model.Client{ID: "c3", UserID: "u2", Name: "Other", Industry: "x", Description: "d", CreatedAt: now}))

	list, err := s.ListClients(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme", list[0].Name)
	assert.Equal(t, "Globex", list[1].Name)

	_, err = s.GetClient(ctx, "u1", "c3")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient(ctx, "u1", "c3"), ErrNotFound)

	c, err := s.GetClient(ctx, "u1", "c1")
	require.NoError(t, err)
	c.Industry = "Payments"
	require.NoError(t, s.UpdateClient(ctx, c))

	c, err = s.GetClient(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Payments", c.Industry)

	require.NoError(t, s.DeleteClient(ctx, "u1", "c1"))
	list, err = s.ListClients(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := s.ListClients(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAssets_FilterByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateAsset(ctx, &model.Asset{ID: "a1", UserID: "u1", Type: model.AssetProductDescription, Name: "P", Content: "p", CreatedAt: now}))
	require.NoError(t, s.CreateAsset(ctx, &model.Asset{ID: "a2", UserID: "u1", Type: model.AssetUseCase, Name: "U", Content: "u", FileName: "u.txt", FileData: "dQ==", CreatedAt: now}))

	all, err := s.ListAssets(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	useCases, err := s.ListAssets(ctx, "u1", model.AssetUseCase)
	require.NoError(t, err)
	require.Len(t, useCases, 1)
	assert.Equal(t, "u.txt", useCases[0].FileName)
	assert.Equal(t, "dQ==", useCases[0].FileData)

	require.NoError(t, s.DeleteAsset(ctx, "u1", "a1"))
	assert.ErrorIs(t, s.DeleteAsset(ctx, "u1", "a1"), ErrNotFound)
}

func TestLeads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := &model.Lead{ID: "l1", UserID: "u1", ClientID: "c1", ClientName: "Acme", ProjectScope: "Rollout", Status: model.LeadActive, CreatedAt: time.Now()}
	require.NoError(t, s.CreateLead(ctx, l))

	got, err := s.GetLead(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, model.LeadActive, got.Status)

	got.Status = model.LeadWon
	got.ClientName = "Acme Corp"
	require.NoError(t, s.UpdateLead(ctx, got))

	list, err := s.ListLeads(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.LeadWon, list[0].Status)
	assert.Equal(t, "Acme Corp", list[0].ClientName)

	other := *got
	other.UserID = "u2"
	assert.ErrorIs(t, s.UpdateLead(ctx, &other), ErrNotFound)

	require.NoError(t, s.DeleteLead(ctx, "u1", "l1"))
	_, err = s.GetLead(ctx, "u1", "l1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecks_RoundTripContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := &model.Deck{
		ID: "d1", UserID: "u1", LeadID: "l1", LeadName: "Acme",
		Content: deck.Content{
			Title: "Acme Deck",
			Slides: []deck.Slide{
				{Type: deck.TypeTitle, Title: "Hello", Subtitle: "World"},
				{Type: deck.TypeROI, Title: "Value", Metrics: []deck.Metric{{Value: "3x", Label: "Speed"}}},
			},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateDeck(ctx, d))

	got, err := s.GetDeck(ctx, "u1", "d1")
	require.NoError(t, err)
	assert.Equal(t, d.Content, got.Content)
	assert.Equal(t, d.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	_, err = s.GetDeck(ctx, "u2", "d1")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListDecks(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
