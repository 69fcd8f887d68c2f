package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"

	"github.com/couchcryptid/weather-notification-service/internal/adapter/discord"
	httpadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-notification-service/internal/adapter/timestream"
	"github.com/couchcryptid/weather-notification-service/internal/config"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
	"github.com/couchcryptid/weather-notification-service/internal/pipeline"
)

func main() {
	cfg, err := config.LoadProcessor()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	store := timestream.NewWriter(timestreamwrite.NewFromConfig(awsCfg), cfg.TimestreamDatabase, cfg.TimestreamTable, logger)
	notifier := discord.NewBreakerNotifier(
		discord.NewWebhook(cfg.DiscordWebhookURL, cfg.HTTPTimeout, logger),
		discord.BreakerConfig{ConsecutiveFailures: cfg.NotifyBreakerFailures, OpenTimeout: cfg.NotifyBreakerTimeout},
		logger,
	)
	processor := pipeline.NewProcessor(store, notifier, logger, metrics)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		logger.Info("starting lambda handler")
		lambda.StartWithOptions(sqsHandler(processor, logger), lambda.WithContext(ctx))
		return
	}

	if cfg.QueueBackend != config.BackendKafka {
		logger.Error("long-running processor requires QUEUE_BACKEND=kafka", "backend", cfg.QueueBackend)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	p := pipeline.New(reader, processor, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:    cfg.HTTPAddr,
		Service: "processor",
		Ready:   p,
		Logger:  logger,
	})

	srvDone := make(chan struct{})
	go func() {
		defer close(srvDone)
		if err := srv.Serve(ctx, cfg.ShutdownTimeout); err != nil {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start consumer loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	<-srvDone
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}

	logger.Info("shutdown complete")
}
