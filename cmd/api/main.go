// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/config"
	"github.com/capitalize-ai/sales-deck/internal/identity"
	"github.com/capitalize-ai/sales-deck/internal/llm"
	natsclient "github.com/capitalize-ai/sales-deck/internal/nats"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/internal/server"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
	"github.com/capitalize-ai/sales-deck/pkg/tracing"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var logOpts []logger.Option
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile))
	}
	log, err := logger.New(cfg.LogLevel, logOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "salesdeck-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	repo, err := repository.NewSQLite(cfg.DBPath, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer repo.Close()

	deps := server.Deps{
		Config:   cfg,
		Logger:   log,
		Repo:     repo,
		Resolver: identity.NewClient(cfg.IdentitySessionURL, 15*time.Second),
	}

	// NATS is optional; without it deck events are not published.
	if cfg.NATSURL != "" {
		events, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer events.Close()

		deps.Publisher = events
		deps.NATS = events
	}

	llmClient, err := llm.FromKeys(llm.Provider(cfg.DefaultLLM), cfg.AnthropicAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		log.Warn("failed to create LLM client, decks will use the fallback", zap.Error(err))
	}
	if llmClient != nil {
		deps.LLM = llmClient
		log.Info("LLM configured", zap.String("provider", llmClient.Name()))
	} else {
		log.Warn("no LLM API key configured, decks will use the fallback")
	}

	api := server.NewAPI(deps)
	go purgeSessions(ctx, api, log)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      api.Router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// purgeSessions deletes expired sessions every hour until ctx is done.
func purgeSessions(ctx context.Context, api *server.API, log *logger.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := api.Auth.PurgeExpired(ctx)
			if err != nil {
				log.Warn("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
