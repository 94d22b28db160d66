package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// fakeBackend is an in-memory API. listHook, when set, runs at the start of
// every ListClients call with the 1-based call number.
type fakeBackend struct {
	mu sync.Mutex

	clients []model.Client
	assets  []model.Asset
	leads   []model.Lead
	decks   []model.Deck

	listErr   error
	createErr error
	deleteErr error

	listCalls map[Collection]int
	created   []any
	deleted   []string
	listHook  func(call int) []model.Client
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{listCalls: map[Collection]int{}}
}

func (f *fakeBackend) count(c Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[c]++
	return f.listCalls[c]
}

func (f *fakeBackend) ListClients(context.Context) ([]model.Client, error) {
	call := f.count(Clients)
	if f.listHook != nil {
		if items := f.listHook(call); items != nil {
			return items, nil
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Client(nil), f.clients...), nil
}

func (f *fakeBackend) ListAssets(context.Context) ([]model.Asset, error) {
	f.count(Assets)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Asset(nil), f.assets...), nil
}

func (f *fakeBackend) ListLeads(context.Context) ([]model.Lead, error) {
	f.count(Leads)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Lead(nil), f.leads...), nil
}

func (f *fakeBackend) ListDecks(context.Context) ([]model.Deck, error) {
	f.count(Decks)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Deck(nil), f.decks...), nil
}

func (f *fakeBackend) CreateClient(_ context.Context, req model.CreateClientRequest) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := model.Client{ID: "c" + req.Name, Name: req.Name, Industry: req.Industry, Description: req.Description}
	f.clients = append(f.clients, c)
	f.created = append(f.created, req)
	return &c, nil
}

func (f *fakeBackend) CreateAsset(_ context.Context, req model.CreateAssetRequest) (*model.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	a := model.Asset{ID: "a" + req.Name, Type: req.Type, Name: req.Name, Content: req.Content}
	f.assets = append(f.assets, a)
	f.created = append(f.created, req)
	return &a, nil
}

func (f *fakeBackend) CreateLead(_ context.Context, req model.CreateLeadRequest) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	l := model.Lead{ID: "l" + req.ClientID, ClientID: req.ClientID, ProjectScope: req.ProjectScope, Status: model.LeadActive}
	f.leads = append(f.leads, l)
	f.created = append(f.created, req)
	return &l, nil
}

func (f *fakeBackend) remove(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	for i, c := range f.clients {
		if c.ID == id {
			f.clients = append(f.clients[:i], f.clients[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) DeleteClient(_ context.Context, id string) error { return f.remove(id) }
func (f *fakeBackend) DeleteAsset(_ context.Context, id string) error  { return f.remove(id) }
func (f *fakeBackend) DeleteLead(_ context.Context, id string) error   { return f.remove(id) }

func TestFetchAll_ReplacesEverything(t *testing.T) {
	b := newFakeBackend()
	b.clients = []model.Client{{ID: "c1", Name: "Acme"}}
	b.assets = []model.Asset{{ID: "a1"}}
	b.leads = []model.Lead{{ID: "l1"}}
	b.decks = []model.Deck{{ID: "d1"}}

	s := New(b, logger.NewNop())
	assert.False(t, s.Snapshot().Loaded)

	require.NoError(t, s.FetchAll(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Len(t, snap.Clients, 1)
	assert.Len(t, snap.Assets, 1)
	assert.Len(t, snap.Leads, 1)
	assert.Len(t, snap.Decks, 1)
	for _, c := range Collections {
		assert.Equal(t, 1, b.listCalls[c], c)
	}
}

func TestFetchAll_Idempotent(t *testing.T) {
	b := newFakeBackend()
	b.clients = []model.Client{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}}
	b.assets = []model.Asset{{ID: "a1", Name: "POS Suite"}}
	b.leads = []model.Lead{{ID: "l1", ClientID: "c1", ClientName: "Acme"}}
	b.decks = []model.Deck{{ID: "d1", LeadID: "l1"}}

	s := New(b, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, s.FetchAll(ctx))
	first := s.Snapshot()
	require.NoError(t, s.FetchAll(ctx))
	second := s.Snapshot()

	assert.Equal(t, first.Clients, second.Clients)
	assert.Equal(t, first.Assets, second.Assets)
	assert.Equal(t, first.Leads, second.Leads)
	assert.Equal(t, first.Decks, second.Decks)
	assert.Len(t, second.Clients, 2)
	for _, c := range Collections {
		assert.Equal(t, 2, b.listCalls[c], c)
	}
}

func TestFetchAll_FailureKeepsPreviousData(t *testing.T) {
	b := newFakeBackend()
	b.clients = []model.Client{{ID: "c1"}}
	b.leads = []model.Lead{{ID: "l1"}}

	s := New(b, logger.NewNop())
	require.NoError(t, s.FetchAll(context.Background()))

	b.clients = append(b.clients, model.Client{ID: "c2"})
	b.listErr = errors.New("boom")

	err := s.FetchAll(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Clients, 1, "no partial update when one list fails")
	assert.Len(t, snap.Leads, 1)
}

func TestFetchAll_StaleResultDropped(t *testing.T) {
	b := newFakeBackend()
	started := make(chan struct{})
	release := make(chan struct{})
	b.listHook = func(call int) []model.Client {
		if call == 1 {
			close(started)
			<-release
			return []model.Client{{ID: "stale"}}
		}
		return []model.Client{{ID: "fresh"}}
	}

	s := New(b, logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- s.FetchAll(context.Background()) }()
	<-started

	require.NoError(t, s.FetchAll(context.Background()))
	close(release)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "fresh", snap.Clients[0].ID)
}

func TestCreate_SuccessResetsFormAndRefetchesOnce(t *testing.T) {
	b := newFakeBackend()
	s := New(b, logger.NewNop())

	err := s.Create(context.Background(), ClientForm{Name: "Acme", Industry: "Fintech", Description: "Payments"})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, ClientForm{}, snap.ClientForm)
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "Acme", snap.Clients[0].Name)
	for _, c := range Collections {
		assert.Equal(t, 1, b.listCalls[c], "one refetch of %s", c)
	}
}

func TestCreate_FailureKeepsFormAndSkipsRefetch(t *testing.T) {
	b := newFakeBackend()
	b.createErr = errors.New("500")
	s := New(b, logger.NewNop())

	form := LeadForm{ClientID: "c1", ProjectScope: "Rollout", Notes: "n"}
	err := s.Create(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create leads")

	assert.Equal(t, form, s.Snapshot().LeadForm)
	for _, c := range Collections {
		assert.Zero(t, b.listCalls[c])
	}
}

func TestCreate_AssetDefaultsType(t *testing.T) {
	b := newFakeBackend()
	s := New(b, logger.NewNop())

	assert.Equal(t, model.AssetProductDescription, s.Snapshot().AssetForm.Type)

	require.NoError(t, s.Create(context.Background(), AssetForm{Name: "Brochure", Content: "text"}))
	require.Len(t, b.created, 1)
	assert.Equal(t, model.AssetProductDescription, b.created[0].(model.CreateAssetRequest).Type)

	require.NoError(t, s.Create(context.Background(), AssetForm{Type: model.AssetUseCase, Name: "Bank", Content: "t"}))
	assert.Equal(t, model.AssetUseCase, b.created[1].(model.CreateAssetRequest).Type)
	assert.Equal(t, DefaultAssetForm(), s.Snapshot().AssetForm)
}

func TestDelete(t *testing.T) {
	b := newFakeBackend()
	b.clients = []model.Client{{ID: "c1"}, {ID: "c2"}}
	s := New(b, logger.NewNop())

	require.NoError(t, s.Delete(context.Background(), Clients, "c1"))
	assert.Equal(t, []string{"c1"}, b.deleted)

	snap := s.Snapshot()
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, "c2", snap.Clients[0].ID)
	assert.Equal(t, 1, b.listCalls[Decks])
}

func TestDelete_FailureSkipsRefetch(t *testing.T) {
	b := newFakeBackend()
	b.deleteErr = errors.New("404")
	s := New(b, logger.NewNop())

	require.Error(t, s.Delete(context.Background(), Leads, "l1"))
	assert.Zero(t, b.listCalls[Leads])
}

func TestDelete_DecksUnsupported(t *testing.T) {
	s := New(newFakeBackend(), logger.NewNop())

	err := s.Delete(context.Background(), Decks, "d1")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestList_SingleCollection(t *testing.T) {
	b := newFakeBackend()
	b.decks = []model.Deck{{ID: "d1"}}
	s := New(b, logger.NewNop())

	require.NoError(t, s.List(context.Background(), Decks))
	assert.Len(t, s.Snapshot().Decks, 1)
	assert.Zero(t, b.listCalls[Clients])

	assert.ErrorIs(t, s.List(context.Background(), Collection("widgets")), ErrUnsupported)
}

func TestSnapshot_IsACopy(t *testing.T) {
	b := newFakeBackend()
	b.clients = []model.Client{{ID: "c1", Name: "Acme"}}
	s := New(b, logger.NewNop())
	require.NoError(t, s.FetchAll(context.Background()))

	snap := s.Snapshot()
	snap.Clients[0].Name = "changed"

	assert.Equal(t, "Acme", s.Snapshot().Clients[0].Name)
}
