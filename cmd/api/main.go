package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/dmfedotov/legal-doc-assistant/internal/adapters/http"
	"github.com/dmfedotov/legal-doc-assistant/internal/bootstrap"
	"github.com/dmfedotov/legal-doc-assistant/internal/config"
	"github.com/dmfedotov/legal-doc-assistant/internal/observability/logging"
	"github.com/dmfedotov/legal-doc-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logging.Setup("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(
		httpadapter.RouterConfig{
			Service:          "api",
			UploadMaxBytes:   cfg.UploadMaxBytes,
			QuestionMaxChars: cfg.QuestionMaxLen,
			ModelName:        cfg.GroqModel,
		},
		app.IngestUC,
		app.AI,
		app.Repo,
		app.History,
		app.Storage,
		m,
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown failed", "error", err)
	}
}
