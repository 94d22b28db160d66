// Package store holds the dashboard's local copy of the four server-owned
// collections and the pending create forms. Every successful mutation is
// followed by a full refetch; the server is the only source of truth.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
	"github.com/capitalize-ai/sales-deck/pkg/metrics"
)

// Collection names one of the server-owned record sets.
type Collection string

const (
	Clients Collection = "clients"
	Assets  Collection = "assets"
	Leads   Collection = "leads"
	Decks   Collection = "decks"
)

// Collections lists every collection in display order.
var Collections = []Collection{Clients, Assets, Leads, Decks}

// ErrUnsupported is returned for operations a collection does not allow.
var ErrUnsupported = errors.New("operation not supported for collection")

// Backend is the slice of the API client the store needs.
type Backend interface {
	ListClients(ctx context.Context) ([]model.Client, error)
	ListAssets(ctx context.Context) ([]model.Asset, error)
	ListLeads(ctx context.Context) ([]model.Lead, error)
	ListDecks(ctx context.Context) ([]model.Deck, error)

	CreateClient(ctx context.Context, req model.CreateClientRequest) (*model.Client, error)
	CreateAsset(ctx context.Context, req model.CreateAssetRequest) (*model.Asset, error)
	CreateLead(ctx context.Context, req model.CreateLeadRequest) (*model.Lead, error)

	DeleteClient(ctx context.Context, id string) error
	DeleteAsset(ctx context.Context, id string) error
	DeleteLead(ctx context.Context, id string) error
}

// Snapshot is a consistent copy of the store's state.
type Snapshot struct {
	Clients []model.Client
	Assets  []model.Asset
	Leads   []model.Lead
	Decks   []model.Deck

	ClientForm ClientForm
	AssetForm  AssetForm
	LeadForm   LeadForm

	// Loaded is false until the first successful FetchAll.
	Loaded    bool
	FetchedAt time.Time
}

// Store is safe for concurrent use.
type Store struct {
	backend Backend
	logger  *logger.Logger

	mu      sync.RWMutex
	clients []model.Client
	assets  []model.Asset
	leads   []model.Lead
	decks   []model.Deck

	clientForm ClientForm
	assetForm  AssetForm
	leadForm   LeadForm

	loaded    bool
	fetchedAt time.Time

	// issued counts started fetches; applied records, per collection, the
	// newest fetch whose result is in place. Older results are dropped.
	issued  uint64
	applied map[Collection]uint64
}

// New creates an empty store.
func New(backend Backend, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Global()
	}
	return &Store{
		backend:   backend,
		logger:    log,
		assetForm: DefaultAssetForm(),
		applied:   make(map[Collection]uint64, len(Collections)),
	}
}

func (s *Store) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// FetchAll lists all four collections concurrently and replaces local state
// only when every list succeeded. On failure the previous data stays.
func (s *Store) FetchAll(ctx context.Context) error {
	seq := s.nextSeq()
	start := time.Now()

	var (
		clients []model.Client
		assets  []model.Asset
		leads   []model.Lead
		decks   []model.Deck
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clients, err = s.backend.ListClients(gctx)
		return err
	})
	g.Go(func() (err error) {
		assets, err = s.backend.ListAssets(gctx)
		return err
	})
	g.Go(func() (err error) {
		leads, err = s.backend.ListLeads(gctx)
		return err
	})
	g.Go(func() (err error) {
		decks, err = s.backend.ListDecks(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		metrics.RecordFetchAll(time.Since(start).Seconds(), true)
		s.logger.Warn("refetch failed, keeping previous data",
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return fmt.Errorf("fetch all: %w", err)
	}

	s.mu.Lock()
	if seq > s.applied[Clients] {
		s.clients = clients
		s.applied[Clients] = seq
	}
	if seq > s.applied[Assets] {
		s.assets = assets
		s.applied[Assets] = seq
	}
	if seq > s.applied[Leads] {
		s.leads = leads
		s.applied[Leads] = seq
	}
	if seq > s.applied[Decks] {
		s.decks = decks
		s.applied[Decks] = seq
	}
	s.loaded = true
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	metrics.RecordFetchAll(time.Since(start).Seconds(), false)
	return nil
}

// List refreshes a single collection, replacing it wholesale.
func (s *Store) List(ctx context.Context, c Collection) error {
	seq := s.nextSeq()

	var apply func()
	switch c {
	case Clients:
		items, err := s.backend.ListClients(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", c, err)
		}
		apply = func() { s.clients = items }
	case Assets:
		items, err := s.backend.ListAssets(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", c, err)
		}
		apply = func() { s.assets = items }
	case Leads:
		items, err := s.backend.ListLeads(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", c, err)
		}
		apply = func() { s.leads = items }
	case Decks:
		items, err := s.backend.ListDecks(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", c, err)
		}
		apply = func() { s.decks = items }
	default:
		return fmt.Errorf("list %q: %w", c, ErrUnsupported)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.applied[c] {
		apply()
		s.applied[c] = seq
	}
	return nil
}

// Create submits form. On success the form resets to its defaults and the
// store refetches; a refetch failure is logged and does not fail Create. On
// failure the submitted values are kept so the user can retry.
func (s *Store) Create(ctx context.Context, form Form) error {
	s.SetForm(form)

	var err error
	switch f := form.(type) {
	case ClientForm:
		_, err = s.backend.CreateClient(ctx, f.request())
	case AssetForm:
		_, err = s.backend.CreateAsset(ctx, f.request())
	case LeadForm:
		_, err = s.backend.CreateLead(ctx, f.request())
	default:
		return fmt.Errorf("create: %w", ErrUnsupported)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", form.Collection(), err)
	}

	metrics.ResourcesCreatedTotal.WithLabelValues(string(form.Collection())).Inc()
	s.ResetForm(form.Collection())

	_ = s.FetchAll(ctx)
	return nil
}

// Delete removes a record by id and refetches on success. Decks cannot be
// deleted.
func (s *Store) Delete(ctx context.Context, c Collection, id string) error {
	var err error
	switch c {
	case Clients:
		err = s.backend.DeleteClient(ctx, id)
	case Assets:
		err = s.backend.DeleteAsset(ctx, id)
	case Leads:
		err = s.backend.DeleteLead(ctx, id)
	default:
		return fmt.Errorf("delete %s: %w", c, ErrUnsupported)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c, id, err)
	}

	_ = s.FetchAll(ctx)
	return nil
}

// SetForm records the current inputs of a form.
func (s *Store) SetForm(form Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch f := form.(type) {
	case ClientForm:
		s.clientForm = f
	case AssetForm:
		s.assetForm = f
	case LeadForm:
		s.leadForm = f
	}
}

// ResetForm restores a form to its defaults.
func (s *Store) ResetForm(c Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch c {
	case Clients:
		s.clientForm = ClientForm{}
	case Assets:
		s.assetForm = DefaultAssetForm()
	case Leads:
		s.leadForm = LeadForm{}
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Clients:    append([]model.Client(nil), s.clients...),
		Assets:     append([]model.Asset(nil), s.assets...),
		Leads:      append([]model.Lead(nil), s.leads...),
		Decks:      append([]model.Deck(nil), s.decks...),
		ClientForm: s.clientForm,
		AssetForm:  s.assetForm,
		LeadForm:   s.leadForm,
		Loaded:     s.loaded,
		FetchedAt:  s.fetchedAt,
	}
}
