// Package fetcher implements the fetch-and-publish stage: one call to the
// weather provider, one message on the queue.
package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
)

// WeatherClient returns the current reading for a coordinate pair.
type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) (domain.WeatherReading, error)
}

// Publisher puts a reading on the queue and returns its message ID.
type Publisher interface {
	Publish(ctx context.Context, r domain.WeatherReading) (string, error)
}

// Service runs one fetch for a fixed location.
type Service struct {
	client    WeatherClient
	publisher Publisher
	lat, lon  float64
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service for the given coordinates.
func NewService(client WeatherClient, publisher Publisher, lat, lon float64, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		client:    client,
		publisher: publisher,
		lat:       lat,
		lon:       lon,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run fetches the current reading and publishes it. Any error aborts the
// invocation; nothing is published when the fetch or parse fails.
func (s *Service) Run(ctx context.Context) (domain.FetchSummary, error) {
	return s.run(ctx, s.logger.With("invocation_id", uuid.NewString()))
}

func (s *Service) run(ctx context.Context, logger *slog.Logger) (domain.FetchSummary, error) {
	start := time.Now()

	reading, err := s.client.Current(ctx, s.lat, s.lon)
	if err != nil {
		s.fail(logger, "fetch failed", err)
		return domain.FetchSummary{}, err
	}

	id, err := s.publisher.Publish(ctx, reading)
	if err != nil {
		s.fail(logger, "publish failed", err)
		return domain.FetchSummary{Reading: reading}, err
	}

	s.metrics.Fetches.WithLabelValues("success").Inc()
	s.metrics.MessagesPublished.Inc()
	logger.Info("reading queued",
		"message_id", id,
		"location", reading.Location,
		"temperature", reading.Temperature,
		"condition", reading.Condition,
		"duration", time.Since(start),
	)
	return domain.FetchSummary{Success: true, MessageID: id, Reading: reading}, nil
}

func (s *Service) fail(logger *slog.Logger, msg string, err error) {
	kind := domain.ErrorKind(err)
	s.metrics.Fetches.WithLabelValues(kind).Inc()
	logger.Error(msg, "error", err, "kind", kind, "lat", s.lat, "lon", s.lon)
}
