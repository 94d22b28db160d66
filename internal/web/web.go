// Package web serves the dashboard as server-rendered pages. Each browser
// gets its own app.Dashboard, found through a signed state cookie, and every
// page action is a form post followed by a redirect.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/apiclient"
	"github.com/capitalize-ai/sales-deck/internal/app"
	"github.com/capitalize-ai/sales-deck/internal/bootstrap"
	"github.com/capitalize-ai/sales-deck/internal/deck"
	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/store"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

const pageTitle = "Sales Deck AI"

const (
	anonParam   = "anon"
	anonLanding = "/?" + anonParam + "=1"
)

// Options configures the dashboard server.
type Options struct {
	// PublicURL is the dashboard's own origin, used as the login return address.
	PublicURL string
	// LoginURL is the identity provider's login page.
	LoginURL string
	// Secret signs state cookies.
	Secret []byte
	// StateTTL is how long an idle browser state is kept.
	StateTTL     time.Duration
	CookieSecure bool
}

// Server is the dashboard HTTP server.
type Server struct {
	opts     Options
	registry *registry
	pages    pages
	renderer *deck.Renderer
	logger   *logger.Logger
}

// NewAPIFactory returns a factory of API clients for baseURL.
func NewAPIFactory(baseURL string, timeout time.Duration, log *logger.Logger) APIFactory {
	return func(cred *apiclient.Credential) (app.API, error) {
		return apiclient.New(baseURL, cred,
			apiclient.WithTimeout(timeout),
			apiclient.WithLogger(log),
		)
	}
}

// New creates a dashboard server.
func New(opts Options, factory APIFactory, log *logger.Logger) (*Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Server{
		opts:     opts,
		registry: newRegistry(opts.Secret, opts.StateTTL, opts.CookieSecure, factory, log),
		pages:    p,
		renderer: deck.NewRenderer(),
		logger:   log,
	}, nil
}

// Close releases every browser state.
func (s *Server) Close() {
	s.registry.drop()
}

// Routes returns the dashboard router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(s.logger, "dashboard"))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.landing)
	r.Post("/", s.mount)
	r.Get("/login", s.login)
	r.Post("/logout", s.withDashboard(s.logout))

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.dashboard)
		r.Post("/tab", s.withDashboard(s.selectTab))
		r.Post("/clients", s.withDashboard(s.createClient))
		r.Post("/assets", s.withDashboard(s.createAsset))
		r.Post("/leads", s.withDashboard(s.createLead))
		r.Post("/delete", s.withDashboard(s.delete))
		r.Post("/generate", s.withDashboard(s.generate))
		r.Post("/viewer/open", s.withDashboard(s.openViewer))
		r.Post("/viewer/close", s.withDashboard(s.closeViewer))
	})

	return r
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	data.Title = pageTitle
	if err := s.pages.render(w, status, name, data); err != nil {
		s.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func seeOther(w http.ResponseWriter, r *http.Request, v bootstrap.View) {
	http.Redirect(w, r, string(v), http.StatusSeeOther)
}

// landing handles GET /. It serves the mount page, which posts the URL
// fragment back so the session bootstrap runs server-side. An anonymous
// outcome redirects to /?anon=1, which renders the landing page itself.
func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get(anonParam) == "" {
		s.render(w, http.StatusOK, "mount", pageData{})
		return
	}
	var data pageData
	if st, ok := s.registry.lookup(r); ok {
		data.Notices = st.dashboard.TakeNotices()
	}
	s.render(w, http.StatusOK, "landing", data)
}

// mount handles POST /, the landing page's one bootstrap run.
func (s *Server) mount(w http.ResponseWriter, r *http.Request) {
	st, err := s.registry.acquire(w, r)
	if err != nil {
		s.logger.Error("failed to create dashboard state", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	loc := &postedLocation{fragment: r.PostFormValue("fragment")}
	nav := &redirectNavigator{}
	out := st.dashboard.Bootstrap(r.Context(), loc, nav)
	s.logger.Debug("bootstrap finished",
		zap.Stringer("state", out.State),
		zap.Bool("callback", loc.replaced != ""),
	)

	if nav.target == bootstrap.ViewDashboard {
		seeOther(w, r, bootstrap.ViewDashboard)
		return
	}
	http.Redirect(w, r, anonLanding, http.StatusSeeOther)
}

// login handles GET /login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, bootstrap.LoginURL(s.opts.LoginURL, s.opts.PublicURL), http.StatusFound)
}

// dashboard handles GET /dashboard. A browser without any state gets the
// mount page, so a login callback that lands here still reaches bootstrap.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	st, ok := s.registry.lookup(r)
	if !ok {
		s.render(w, http.StatusOK, "mount", pageData{})
		return
	}

	if err := st.dashboard.Mount(r.Context()); err != nil {
		var f *app.Failure
		if errors.As(err, &f) && f.Kind == app.Unauthenticated {
			seeOther(w, r, bootstrap.ViewLanding)
			return
		}
		s.logger.Warn("dashboard mount failed", zap.Error(err))
	}

	view := st.dashboard.Snapshot()
	data := pageData{
		View:       view,
		Tabs:       app.Tabs,
		AssetTypes: assetOptions,
	}
	if view.ActiveDeck != nil {
		html, err := s.renderer.Render(view.ActiveDeck.Content)
		if err != nil {
			s.logger.Error("failed to render deck", zap.String("deck_id", view.ActiveDeck.ID), zap.Error(err))
		}
		data.DeckHTML = html
	}
	s.render(w, http.StatusOK, "dashboard", data)
}

type dashboardAction func(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard)

// withDashboard resolves the browser's signed-in dashboard or sends the
// browser to the landing page.
func (s *Server) withDashboard(fn dashboardAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := s.registry.lookup(r)
		if !ok || !st.dashboard.Authenticated() {
			seeOther(w, r, bootstrap.ViewLanding)
			return
		}
		fn(r.Context(), w, r, st.dashboard)
	}
}

// done logs a failed action and returns to the dashboard, where the
// failure's notice is shown.
func (s *Server) done(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.logger.Info("dashboard action failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	seeOther(w, r, bootstrap.ViewDashboard)
}

func (s *Server) selectTab(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	tab, ok := app.ParseTab(r.PostFormValue("tab"))
	if !ok {
		http.Error(w, "unknown tab", http.StatusBadRequest)
		return
	}
	d.SelectTab(ctx, tab)
	s.done(w, r, nil)
}

func (s *Server) createClient(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	s.done(w, r, d.Create(ctx, store.ClientForm{
		Name:        r.PostFormValue("name"),
		Industry:    r.PostFormValue("industry"),
		Description: r.PostFormValue("description"),
	}))
}

func (s *Server) createAsset(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	s.done(w, r, d.Create(ctx, store.AssetForm{
		Type:    model.AssetType(r.PostFormValue("type")),
		Name:    r.PostFormValue("name"),
		Content: r.PostFormValue("content"),
	}))
}

func (s *Server) createLead(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	s.done(w, r, d.Create(ctx, store.LeadForm{
		ClientID:     r.PostFormValue("client_id"),
		ProjectScope: r.PostFormValue("project_scope"),
		Notes:        r.PostFormValue("notes"),
	}))
}

func (s *Server) delete(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	c, ok := parseCollection(r.PostFormValue("collection"))
	if !ok {
		http.Error(w, "unknown collection", http.StatusBadRequest)
		return
	}
	s.done(w, r, d.Delete(ctx, c, r.PostFormValue("id")))
}

func parseCollection(v string) (store.Collection, bool) {
	for _, c := range store.Collections {
		if string(c) == v {
			return c, true
		}
	}
	return "", false
}

func (s *Server) generate(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	s.done(w, r, d.Generate(ctx, r.PostFormValue("lead_id")))
}

func (s *Server) openViewer(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	s.done(w, r, d.SelectDeck(ctx, r.PostFormValue("deck_id")))
}

func (s *Server) closeViewer(_ context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	d.CloseViewer()
	s.done(w, r, nil)
}

func (s *Server) logout(ctx context.Context, w http.ResponseWriter, r *http.Request, d *app.Dashboard) {
	nav := &redirectNavigator{}
	d.Logout(ctx, nav)
	seeOther(w, r, nav.target)
}
