package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/faq-rag/internal/domain/faq"
	"github.com/yanqian/faq-rag/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	faqSvc faq.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, faqSvc faq.Service) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, faqSvc: faqSvc}
}

// Ready checks the vector store before the server accepts traffic.
func (a *App) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	status := a.faqSvc.Health(ctx)
	if !status.Healthy {
		return fmt.Errorf("vector store not ready: %w", status.Err)
	}
	a.logger.Info("vector store ready", "driver", a.cfg.Store.Driver, "faqs", status.Stats.Entries, "variants", status.Stats.Variants)
	if status.Stats.Entries == 0 {
		a.logger.Warn("no faqs in the vector store, run cmd/seed to populate it")
	}
	if a.cfg.Auth.UsingDemoKey {
		a.logger.Warn("no API keys configured, using the demo key", "key", config.DemoAPIKey)
	}
	a.logger.Info("api key authentication enabled", "keys", len(a.cfg.Auth.APIKeys), "header", a.cfg.Auth.Header)
	return nil
}

// Run checks readiness, starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.Ready(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
