package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/commit-webhooks/config"
	"github.com/marcelsud/commit-webhooks/internal/http/chi"
	"github.com/marcelsud/commit-webhooks/internal/store"
	"github.com/marcelsud/commit-webhooks/metrics"
	"github.com/marcelsud/commit-webhooks/providers"
	"github.com/marcelsud/commit-webhooks/user"
	"github.com/marcelsud/commit-webhooks/webhook"
	"github.com/marcelsud/commit-webhooks/webhook/dispatch"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/* main wires the packages together, top-down:
 * config -> stores -> dispatcher -> pipeline -> router.
 * Nothing below this file reads the environment or opens connections on its own.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Println(fmt.Errorf("invalid LOG_LEVEL: %w", err))
		return
	}
	logger := chi.NewLogger(level.String())
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	catalog, err := providers.FromConfig(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("loading providers")
		return
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("store_driver", cfg.StoreDriver).Msg("opening stores")
		return
	}
	defer st.Close()

	exporter, err := metrics.NewOTelExporter(st.Collector)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	registry := dispatch.NewRegistry()
	dispatch.NewHandlers(user.NewService(st.Users), st.Billing).Register(registry)
	dispatcher := dispatch.NewDispatcher(registry, st.Ledger, cfg.StoreTimeout())

	pipeline, err := webhook.NewPipeline(cfg, catalog, dispatcher,
		webhook.WithLogger(logger),
		webhook.WithRecorder(exporter),
	)
	if err != nil {
		logger.Error().Err(err).Msg("building pipeline")
		return
	}

	r := chi.Handlers(ctx, logger, pipeline, exporter.ServeHTTP())
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)

	for _, p := range catalog.List() {
		logger.Info().Str("provider", p.ID).Str("path", p.Path).Str("scheme", p.Scheme.String()).Msg("webhook endpoint registered")
	}
	logger.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Str("store_driver", cfg.StoreDriver).
		Msg("listening")

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing the server to close: %w", err)
	default:
		errShutdown <- fmt.Errorf("forcing the server to close: %w", err)
	}
}
