// Package main is the entry point for the dashboard server.
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
	"github.com/capitalize-ai/sales-deck/internal/web"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
	"github.com/capitalize-ai/sales-deck/pkg/tracing"
)

func main() {
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

	log.Info("starting dashboard server", zap.String("api", cfg.APIBaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "salesdeck-dashboard", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	dash, err := web.New(web.Options{
		PublicURL:    cfg.PublicURL,
		LoginURL:     cfg.LoginURL,
		Secret:       []byte(cfg.DashboardSecret),
		StateTTL:     cfg.DashboardStateTTL,
		CookieSecure: cfg.CookieSecure,
	}, web.NewAPIFactory(cfg.APIBaseURL, cfg.ServerWriteTimeout, log), log)
	if err != nil {
		log.Fatal("failed to create dashboard", zap.Error(err))
	}
	defer dash.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.DashboardPort,
		Handler:      dash.Routes(),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.DashboardPort))
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
