// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/s3hookproxy/proxy/pkg/config"
	"github.com/s3hookproxy/proxy/pkg/event"
	"github.com/s3hookproxy/proxy/pkg/hooks"
	"github.com/s3hookproxy/proxy/pkg/metrics"
	"github.com/s3hookproxy/proxy/pkg/proxy"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	log.Logger = log.Level(level)

	// All hook registration must happen before serving begins; the registry
	// is read-mostly once requests start flowing.
	registry := event.NewRegistry()
	if err := hooks.NewDefault(cfg.Secret).RegisterOn(registry); err != nil {
		log.Fatal().Err(err).Msg("failed to register default hooks")
	}

	reg := prometheus.NewRegistry()
	promMetrics := metrics.New(reg)

	proxyHandler := proxy.New(cfg, registry, promMetrics)

	router := chi.NewRouter()
	router.Handle("/*", proxyHandler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:    cfg.MetricsListenAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Info().
			Str("listen_addr", cfg.MetricsListenAddr).
			Msg("starting metrics listener")
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server exited unexpectedly")
		}
	}()

	go func() {
		log.Info().
			Str("listen_addr", cfg.ListenAddr).
			Str("object_store_host", cfg.ObjectStoreHost).
			Int("object_store_port", cfg.ObjectStorePort).
			Msg("starting s3 hook proxy")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("proxy server exited unexpectedly")
		}
	}()

	waitForShutdown(context.Background(), server, metricsServer, cfg.GracefulShutdownTimeout)
}

func waitForShutdown(ctx context.Context, srv, metricsSrv *http.Server, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info().Msg("shutting down s3 hook proxy")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed; forcing close")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("forced close failed")
		}
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown failed; forcing close")
		if closeErr := metricsSrv.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("metrics forced close failed")
		}
	}

	log.Info().Msg("proxy stopped")
}
