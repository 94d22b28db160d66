// Package server assembles the API router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/sales-deck/internal/config"
	"github.com/capitalize-ai/sales-deck/internal/handler"
	"github.com/capitalize-ai/sales-deck/internal/identity"
	"github.com/capitalize-ai/sales-deck/internal/llm"
	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// Deps are the collaborators of the API server. LLM, Publisher and NATS
// may be nil.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Repo      repository.Repository
	Resolver  identity.Resolver
	LLM       llm.Client
	Publisher service.EventPublisher
	NATS      handler.ConnChecker
}

// API is the assembled API server.
type API struct {
	Router http.Handler
	Auth   *service.AuthService
}

// NewAPI wires services, handlers and middleware into a router.
func NewAPI(d Deps) *API {
	cfg, log := d.Config, d.Logger

	authSvc := service.NewAuthService(d.Repo, d.Resolver, cfg.SessionTTL, log)
	clientSvc := service.NewClientService(d.Repo, log)
	assetSvc := service.NewAssetService(d.Repo, log)
	leadSvc := service.NewLeadService(d.Repo, log)
	deckOpts := []service.DeckOption{service.WithModel(cfg.LLMModel)}
	if d.Publisher != nil {
		deckOpts = append(deckOpts, service.WithPublisher(d.Publisher))
	}
	deckSvc := service.NewDeckService(d.Repo, d.LLM, log, deckOpts...)

	healthHandler := handler.NewHealthHandler(d.Repo, d.NATS)
	authHandler := handler.NewAuthHandler(authSvc, cfg.CookieSecure, log)
	clientHandler := handler.NewClientHandler(clientSvc, log)
	assetHandler := handler.NewAssetHandler(assetSvc, log)
	leadHandler := handler.NewLeadHandler(leadSvc, log)
	deckHandler := handler.NewDeckHandler(deckSvc, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log, "api"))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/auth/session", authHandler.Session)
			r.Post("/auth/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authSvc, handler.RespondError(log, "failed to authenticate")))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/clients", func(r chi.Router) {
				r.Post("/", clientHandler.Create)
				r.Get("/", clientHandler.List)
				r.Patch("/{id}", clientHandler.Update)
				r.Delete("/{id}", clientHandler.Delete)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Post("/", assetHandler.Create)
				r.Post("/upload", assetHandler.Upload)
				r.Get("/", assetHandler.List)
				r.Delete("/{id}", assetHandler.Delete)
			})

			r.Route("/leads", func(r chi.Router) {
				r.Post("/", leadHandler.Create)
				r.Get("/", leadHandler.List)
				r.Patch("/{id}", leadHandler.Update)
				r.Delete("/{id}", leadHandler.Delete)
			})

			r.Route("/decks", func(r chi.Router) {
				r.Post("/generate", deckHandler.Generate)
				r.Get("/", deckHandler.List)
				r.Get("/{id}", deckHandler.Get)
			})
		})
	})

	return &API{Router: r, Auth: authSvc}
}
