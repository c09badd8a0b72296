package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-watch-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-watch-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-watch-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-watch-service/internal/config"
	"github.com/couchcryptid/quake-watch-service/internal/observability"
	"github.com/couchcryptid/quake-watch-service/internal/refresh"
	"github.com/couchcryptid/quake-watch-service/internal/store"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fetcher := usgs.NewClient(cfg.FeedURL, cfg.FetchTimeout, logger)
	fileStore := store.NewFileStore(cfg.DataPath, logger)

	// Event publishing is feature-flagged via KAFKA_ENABLED.
	var publisher refresh.Publisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	coordinator := refresh.New(
		fetcher, fileStore, publisher,
		cfg.RefreshInterval, cfg.MagnitudeThreshold,
		logger, metrics, clockwork.NewRealClock(),
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, coordinator, cfg.MagnitudeThreshold, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh loop.
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := coordinator.Run(ctx); err != nil {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// Wait for any in-flight refresh to finish so nothing writes after
	// shutdown returns.
	select {
	case <-refreshDone:
	case <-shutdownCtx.Done():
		logger.Warn("refresh loop did not stop within shutdown timeout")
	}

	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
