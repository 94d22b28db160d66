// Package app holds the explicit per-browser application state of the
// dashboard and the transitions that change it.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/bootstrap"
	"github.com/capitalize-ai/sales-deck/internal/generation"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/store"
	"github.com/capitalize-ai/sales-deck/internal/viewer"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// Tab is a dashboard section.
type Tab string

const (
	TabAssets  Tab = "assets"
	TabClients Tab = "clients"
	TabLeads   Tab = "leads"
	TabDecks   Tab = "decks"
)

// DefaultTab is shown after mount.
const DefaultTab = TabAssets

// Tabs lists every tab in display order.
var Tabs = []Tab{TabAssets, TabClients, TabLeads, TabDecks}

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// API is everything the dashboard needs from the sales deck API.
type API interface {
	bootstrap.Authenticator
	store.Backend
	generation.Generator
	viewer.Fetcher
	Logout(ctx context.Context) error
}

// Releaser gives up the session credential.
type Releaser interface {
	Release()
}

// Dashboard is one browser's application state. All methods are safe for
// concurrent use.
type Dashboard struct {
	api    API
	cred   Releaser
	logger *logger.Logger

	store      *store.Store
	viewer     *viewer.Slot
	generation *generation.Controller

	mu      sync.Mutex
	user    *model.User
	tab     Tab
	notices []Notice
	// synced is set when a mutation has just refetched, so the page load
	// that follows it can skip its own refetch.
	synced bool
}

// New creates a dashboard state with no session.
func New(api API, cred Releaser, log *logger.Logger) *Dashboard {
	if log == nil {
		log = logger.Global()
	}
	st := store.New(api, log)
	slot := &viewer.Slot{}
	return &Dashboard{
		api:        api,
		cred:       cred,
		logger:     log,
		store:      st,
		viewer:     slot,
		generation: generation.New(api, slot, st, generation.WithLogger(log)),
		tab:        DefaultTab,
	}
}

// Error implements bootstrap.Notifier.
func (d *Dashboard) Error(msg string) {
	d.notify(LevelError, msg)
}

func (d *Dashboard) notify(level Level, msg string) {
	d.mu.Lock()
	d.notices = append(d.notices, Notice{Level: level, Message: msg})
	d.mu.Unlock()
}

// Bootstrap runs the landing-page session check.
func (d *Dashboard) Bootstrap(ctx context.Context, loc bootstrap.Location, nav bootstrap.Navigator) bootstrap.Outcome {
	b := bootstrap.New(d.api, nav, d, bootstrap.WithLogger(d.logger))
	out := b.Run(ctx, loc)
	if out.State == bootstrap.Authenticated {
		// A callback may have switched accounts. The exchange leaves User
		// nil, so the next Mount probes and refetches as the new user.
		d.mu.Lock()
		d.user = out.User
		d.synced = false
		d.mu.Unlock()
		if out.User == nil {
			d.viewer.Close()
		}
	}
	return out
}

// Authenticated reports whether a user is known.
func (d *Dashboard) Authenticated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.user != nil
}

// User returns the signed-in user, if any.
func (d *Dashboard) User() *model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.user == nil {
		return nil
	}
	u := *d.user
	return &u
}

func (d *Dashboard) setUser(u *model.User) {
	d.mu.Lock()
	d.user = u
	d.mu.Unlock()
}

// Mount loads the dashboard: it confirms the session and fetches all
// collections. A probe failure clears the user and returns an
// Unauthenticated failure; the caller sends the browser to the landing view.
func (d *Dashboard) Mount(ctx context.Context) error {
	d.mu.Lock()
	if d.synced && d.user != nil {
		d.synced = false
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	user, err := d.api.Probe(ctx)
	if err != nil {
		d.setUser(nil)
		return &Failure{Kind: Unauthenticated, Op: "mount", Err: err}
	}
	d.setUser(user)
	d.refresh(ctx, "mount")
	return nil
}

// ActiveTab returns the selected tab.
func (d *Dashboard) ActiveTab() Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tab
}

// SelectTab switches tabs and refetches all collections.
func (d *Dashboard) SelectTab(ctx context.Context, tab Tab) {
	d.mu.Lock()
	d.tab = tab
	d.mu.Unlock()
	d.refresh(ctx, "select tab")
	d.markSynced()
}

func (d *Dashboard) refresh(ctx context.Context, op string) {
	if err := d.store.FetchAll(ctx); err != nil {
		f := &Failure{Kind: FetchFailure, Op: op, Err: err}
		d.logger.Debug("dashboard refresh failed", zap.Error(f))
	}
}

func (d *Dashboard) markSynced() {
	d.mu.Lock()
	d.synced = true
	d.mu.Unlock()
}

// Create submits a form. Success resets the form and refetches; failure
// keeps the form and records an error notice.
func (d *Dashboard) Create(ctx context.Context, form store.Form) error {
	msgs := createMessages[form.Collection()]
	if err := d.store.Create(ctx, form); err != nil {
		d.notify(LevelError, msgs.failure)
		return &Failure{Kind: MutationFailure, Op: "create " + string(form.Collection()), Err: err}
	}
	d.notify(LevelSuccess, msgs.success)
	d.markSynced()
	return nil
}

// Delete removes a record and refetches.
func (d *Dashboard) Delete(ctx context.Context, c store.Collection, id string) error {
	msgs := deleteMessages[c]
	if err := d.store.Delete(ctx, c, id); err != nil {
		d.notify(LevelError, msgs.failure)
		return &Failure{Kind: MutationFailure, Op: "delete " + string(c), Err: err}
	}
	d.notify(LevelSuccess, msgs.success)
	d.markSynced()
	return nil
}

// Generate creates a deck for a lead, opens it in the viewer and refetches.
func (d *Dashboard) Generate(ctx context.Context, leadID string) error {
	if _, err := d.generation.Generate(ctx, leadID); err != nil {
		d.notify(LevelError, "Failed to generate deck")
		return &Failure{Kind: MutationFailure, Op: "generate", Err: err}
	}
	d.notify(LevelSuccess, "Sales deck generated!")
	d.markSynced()
	return nil
}

// Generating reports whether a generation is in flight.
func (d *Dashboard) Generating() bool {
	return d.generation.Generating()
}

// SelectDeck fetches a deck by id and opens it in the viewer.
func (d *Dashboard) SelectDeck(ctx context.Context, id string) error {
	if err := d.viewer.Select(ctx, d.api, id); err != nil {
		d.notify(LevelError, "Failed to load deck")
		return &Failure{Kind: MutationFailure, Op: "select deck", Err: err}
	}
	return nil
}

// CloseViewer hides the viewer.
func (d *Dashboard) CloseViewer() {
	d.viewer.Close()
}

// Logout ends the session. The user is sent to the landing view whether or
// not the server call succeeds; a failure is only logged.
func (d *Dashboard) Logout(ctx context.Context, nav bootstrap.Navigator) {
	if err := d.api.Logout(ctx); err != nil {
		d.logger.Warn("logout failed", zap.Error(err))
	}
	if d.cred != nil {
		d.cred.Release()
	}
	d.viewer.Close()

	d.mu.Lock()
	d.user = nil
	d.synced = false
	d.tab = DefaultTab
	d.mu.Unlock()

	nav.Navigate(bootstrap.ViewLanding)
}

// TakeNotices returns and clears pending notices.
func (d *Dashboard) TakeNotices() []Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.notices
	d.notices = nil
	return out
}

// Snapshot returns everything needed to render the dashboard and drains
// pending notices.
func (d *Dashboard) Snapshot() View {
	v := View{
		User:       d.User(),
		Tab:        d.ActiveTab(),
		Data:       d.store.Snapshot(),
		Generating: d.generation.Generating(),
		Notices:    d.TakeNotices(),
	}
	if active, ok := d.viewer.Active(); ok {
		v.ActiveDeck = &active
	}
	return v
}
