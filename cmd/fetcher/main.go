package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	httpadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-notification-service/internal/adapter/openweather"
	sqsadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/sqs"
	"github.com/couchcryptid/weather-notification-service/internal/config"
	"github.com/couchcryptid/weather-notification-service/internal/fetcher"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
)

func main() {
	cfg, err := config.LoadFetcher()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create publisher", "error", err, "backend", cfg.QueueBackend)
		os.Exit(1)
	}
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Error("publisher close error", "error", err)
		}
	}()

	client := openweather.NewClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.HTTPTimeout, metrics, logger)
	svc := fetcher.NewService(client, publisher, cfg.Latitude, cfg.Longitude, logger, metrics)

	if runningOnLambda() {
		logger.Info("starting lambda handler", "backend", cfg.QueueBackend)
		lambda.StartWithOptions(svc.HandleScheduled, lambda.WithContext(ctx))
		return
	}

	runner := fetcher.RunnerFunc(func(ctx context.Context) error {
		_, err := svc.Run(ctx)
		return err
	})
	scheduler, err := fetcher.NewScheduler(cfg.Schedule, runner, cfg.HTTPTimeout*3, logger)
	if err != nil {
		logger.Error("invalid fetch schedule", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:    cfg.HTTPAddr,
		Service: "fetcher",
		Ready:   scheduler,
		Logger:  logger,
	})

	srvDone := make(chan struct{})
	go func() {
		defer close(srvDone)
		if err := srv.Serve(ctx, cfg.ShutdownTimeout); err != nil {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	scheduler.Stop()

	<-srvDone

	logger.Info("shutdown complete")
}

// newPublisher builds the queue publisher for the configured backend.
func newPublisher(ctx context.Context, cfg *config.Fetcher, logger *slog.Logger) (fetcher.Publisher, func() error, error) {
	if cfg.QueueBackend == config.BackendKafka {
		w := kafkaadapter.NewWriter(cfg, logger)
		return w, w.Close, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	p := sqsadapter.NewPublisher(awssqs.NewFromConfig(awsCfg), cfg.QueueURL, cfg.MessageGroupID, logger)
	return p, func() error { return nil }, nil
}

func runningOnLambda() bool {
	return os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
}
