// Command riskmodel builds the property registry, links violations and 311
// requests to it, and writes property, landlord and district risk outputs.
//
// Without SCHEDULE it runs once and exits. With SCHEDULE set it serves
// /healthz, /readyz, /metrics and /api/* and recomputes on the cron schedule
// until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/landlord-risk-etl/internal/adapter/csvio"
	httpadapter "github.com/couchcryptid/landlord-risk-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/landlord-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/landlord-risk-etl/internal/config"
	"github.com/couchcryptid/landlord-risk-etl/internal/observability"
	"github.com/couchcryptid/landlord-risk-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	sinks := []pipeline.Sink{csvio.NewWriter(cfg.OutputDir, logger)}
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger, metrics)
		sinks = append(sinks, kafkaWriter)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(csvio.NewSource(cfg, logger), sinks, pipeline.Options{
		Risk:      cfg.RiskOptions(),
		Workers:   cfg.Workers,
		CacheSize: cfg.ResolveCacheSize,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if cfg.Schedule == "" {
		if _, err := p.RunOnce(ctx); err != nil {
			code = 1
		}
	} else {
		code = serve(ctx, cfg, p, logger)
	}

	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if code != 0 {
		stop()
		os.Exit(code)
	}
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	sched, err := pipeline.NewScheduler(cfg.Schedule, p, logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		return 1
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the scheduler until a signal arrives.
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
