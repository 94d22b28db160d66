package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-deck/internal/deck"
	"github.com/capitalize-ai/sales-deck/internal/identity"
	"github.com/capitalize-ai/sales-deck/internal/llm"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

func newRepo(t *testing.T) repository.Repository {
	t.Helper()
	r, err := repository.NewSQLite(filepath.Join(t.TempDir(), "svc.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

type stubResolver struct {
	profiles map[string]*identity.Profile
}

func (r *stubResolver) Resolve(_ context.Context, sessionID string) (*identity.Profile, error) {
	if p, ok := r.profiles[sessionID]; ok {
		return p, nil
	}
	return nil, identity.ErrInvalidSession
}

type stubLLM struct {
	content string
	err     error
	prompts []string
}

func (s *stubLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.prompts = append(s.prompts, req.Messages[0].Content)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content, Model: "stub-1", TokensIn: 10, TokensOut: 20}, nil
}

func (s *stubLLM) Name() string     { return "stub" }
func (s *stubLLM) Models() []string { return []string{"stub-1"} }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.DeckEvent
}

func (p *recordingPublisher) PublishDeckEvent(_ context.Context, e *model.DeckEvent) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return uint64(len(p.events)), nil
}

func TestAuthService_CreateAndAuthenticate(t *testing.T) {
	repo := newRepo(t)
	resolver := &stubResolver{profiles: map[string]*identity.Profile{
		"cb-1": {ID: "idp-1", Email: "ada@example.com", Name: "Ada", SessionToken: "tok-1"},
	}}
	svc := NewAuthService(repo, resolver, time.Hour, logger.NewNop())
	ctx := context.Background()

	sess, user, err := svc.CreateSession(ctx, "cb-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, "ada@example.com", user.Email)

	got, err := svc.Authenticate(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, _, err = svc.CreateSession(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidCallback)
}

func TestAuthService_AuthenticateErrors(t *testing.T) {
	repo := newRepo(t)
	svc := NewAuthService(repo, &stubResolver{}, time.Hour, logger.NewNop())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.CreateSession(ctx, &model.Session{
		UserID: "u1", Token: "stale", ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}))

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.Authenticate(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.Authenticate(ctx, "stale")
	assert.ErrorIs(t, err, ErrSessionExpired)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAuthService_Logout(t *testing.T) {
	repo := newRepo(t)
	resolver := &stubResolver{profiles: map[string]*identity.Profile{
		"cb": {Email: "bo@example.com", SessionToken: "tok"},
	}}
	svc := NewAuthService(repo, resolver, time.Hour, logger.NewNop())
	ctx := context.Background()

	_, user, err := svc.CreateSession(ctx, "cb")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	require.NoError(t, svc.Logout(ctx, "tok"))
	_, err = svc.Authenticate(ctx, "tok")
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestClientService_Update(t *testing.T) {
	svc := NewClientService(newRepo(t), logger.NewNop())
	ctx := context.Background()

	c, err := svc.Create(ctx, "u1", &model.CreateClientRequest{Name: "Acme", Industry: "Retail", Description: "Shops"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "u1", c.ID, &model.UpdateClientRequest{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	name := "Acme Corp"
	updated, err := svc.Update(ctx, "u1", c.ID, &model.UpdateClientRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	assert.Equal(t, "Retail", updated.Industry)

	_, err = svc.Update(ctx, "u2", c.ID, &model.UpdateClientRequest{Name: &name})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Client not found", nf.Error())
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(svc.Delete(ctx, "u1", "missing")))
	assert.NoError(t, svc.Delete(ctx, "u1", c.ID))
}

func TestAssetService_Upload(t *testing.T) {
	svc := NewAssetService(newRepo(t), logger.NewNop())
	ctx := context.Background()

	text, err := svc.Upload(ctx, "u1", model.AssetUseCase, "Notes", "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text.Content)
	assert.Equal(t, "aGVsbG8=", text.FileData)

	bin, err := svc.Upload(ctx, "u1", model.AssetGeneral, "Logo", "logo.png", []byte{0xff, 0xfe, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "[Binary file: logo.png]", bin.Content)

	useCases, err := svc.List(ctx, "u1", model.AssetUseCase)
	require.NoError(t, err)
	require.Len(t, useCases, 1)
	assert.Equal(t, text.ID, useCases[0].ID)

	all, err := svc.List(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLeadService_ClientName(t *testing.T) {
	repo := newRepo(t)
	clients := NewClientService(repo, logger.NewNop())
	leads := NewLeadService(repo, logger.NewNop())
	ctx := context.Background()

	_, err := leads.Create(ctx, "u1", &model.CreateLeadRequest{ClientID: "missing", ProjectScope: "x"})
	assert.True(t, IsNotFound(err))

	acme, err := clients.Create(ctx, "u1", &model.CreateClientRequest{Name: "Acme", Industry: "Retail", Description: "d"})
	require.NoError(t, err)
	globex, err := clients.Create(ctx, "u1", &model.CreateClientRequest{Name: "Globex", Industry: "Energy", Description: "d"})
	require.NoError(t, err)

	lead, err := leads.Create(ctx, "u1", &model.CreateLeadRequest{ClientID: acme.ID, ProjectScope: "Rollout"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", lead.ClientName)
	assert.Equal(t, model.LeadActive, lead.Status)

	moved, err := leads.Update(ctx, "u1", lead.ID, &model.UpdateLeadRequest{ClientID: &globex.ID})
	require.NoError(t, err)
	assert.Equal(t, "Globex", moved.ClientName)

	missing := "missing"
	_, err = leads.Update(ctx, "u1", lead.ID, &model.UpdateLeadRequest{ClientID: &missing})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Client", nf.Resource)

	_, err = leads.Update(ctx, "u1", lead.ID, &model.UpdateLeadRequest{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func seedLead(t *testing.T, repo repository.Repository) *model.Lead {
	t.Helper()
	ctx := context.Background()
	c, err := NewClientService(repo, logger.NewNop()).Create(ctx, "u1", &model.CreateClientRequest{Name: "Acme", Industry: "Retail", Description: "Shops"})
	require.NoError(t, err)
	assets := NewAssetService(repo, logger.NewNop())
	_, err = assets.Create(ctx, "u1", &model.CreateAssetRequest{Type: model.AssetProductDescription, Name: "P", Content: "Our product"})
	require.NoError(t, err)
	_, err = assets.Create(ctx, "u1", &model.CreateAssetRequest{Type: model.AssetGeneral, Name: "G", Content: "Company trivia"})
	require.NoError(t, err)
	l, err := NewLeadService(repo, logger.NewNop()).Create(ctx, "u1", &model.CreateLeadRequest{ClientID: c.ID, ProjectScope: "POS rollout", Notes: "Q3"})
	require.NoError(t, err)
	return l
}

func TestDeckService_Generate(t *testing.T) {
	repo := newRepo(t)
	lead := seedLead(t, repo)
	gen := &stubLLM{content: "```json\n{\"title\":\"Acme Deck\",\"slides\":[{\"type\":\"title\",\"title\":\"Hi\"},{\"type\":\"cta\",\"title\":\"Go\"}]}\n```"}
	pub := &recordingPublisher{}
	svc := NewDeckService(repo, gen, logger.NewNop(), WithPublisher(pub), WithModel("stub-1"))
	ctx := context.Background()

	d, err := svc.Generate(ctx, "u1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Deck", d.Content.Title)
	assert.Equal(t, 2, d.Content.SlideCount())
	assert.Equal(t, "Acme", d.LeadName)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Our product")
	assert.Contains(t, gen.prompts[0], "POS rollout")
	assert.Contains(t, gen.prompts[0], "Industry Use Cases:\nNot provided")
	assert.NotContains(t, gen.prompts[0], "Company trivia")

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.EventDeckGenerated, pub.events[0].Type)
	assert.Equal(t, "stub", pub.events[0].Provider)

	stored, err := svc.Get(ctx, "u1", d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Content, stored.Content)

	_, err = svc.Get(ctx, "u2", d.ID)
	assert.True(t, IsNotFound(err))
}

func TestDeckService_FallbackOnBadOutput(t *testing.T) {
	repo := newRepo(t)
	lead := seedLead(t, repo)
	pub := &recordingPublisher{}
	svc := NewDeckService(repo, &stubLLM{content: "Sorry, I cannot help."}, logger.NewNop(), WithPublisher(pub))

	d, err := svc.Generate(context.Background(), "u1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.Fallback("Acme"), d.Content)
	require.Len(t, pub.events, 1)
	assert.Equal(t, model.EventDeckFallback, pub.events[0].Type)
}

func TestDeckService_NoModelConfigured(t *testing.T) {
	repo := newRepo(t)
	lead := seedLead(t, repo)
	svc := NewDeckService(repo, nil, logger.NewNop())

	d, err := svc.Generate(context.Background(), "u1", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales Presentation for Acme", d.Content.Title)
}

func TestDeckService_Errors(t *testing.T) {
	repo := newRepo(t)
	lead := seedLead(t, repo)
	ctx := context.Background()

	svc := NewDeckService(repo, &stubLLM{err: errors.New("upstream down")}, logger.NewNop())
	_, err := svc.Generate(ctx, "u1", lead.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")

	decks, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, decks)

	_, err = svc.Generate(ctx, "u1", "missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Lead not found", nf.Error())
}
