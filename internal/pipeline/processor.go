package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
)

// MetricsStore persists a reading's measure points.
type MetricsStore interface {
	Write(ctx context.Context, r domain.WeatherReading) (int, error)
}

// Notifier delivers a notification to the chat webhook.
type Notifier interface {
	Notify(ctx context.Context, n domain.AlertNotification) error
}

// Processor handles batches of queued readings. Every message is handled
// independently; failures are logged and counted, never returned.
type Processor struct {
	store    MetricsStore
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewProcessor creates a Processor with the given collaborators.
func NewProcessor(store MetricsStore, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{store: store, notifier: notifier, logger: logger, metrics: metrics}
}

// ProcessBatch folds the batch into a summary. Messages are handled in order.
func (p *Processor) ProcessBatch(ctx context.Context, msgs []domain.RawMessage) domain.BatchSummary {
	start := time.Now()
	p.metrics.MessagesReceived.Add(float64(len(msgs)))
	p.metrics.BatchSize.Observe(float64(len(msgs)))

	var summary domain.BatchSummary
	for _, msg := range msgs {
		summary.Add(p.processMessage(ctx, msg))
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("batch processed",
		"received", summary.Received,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"write_failures", summary.WriteFailures,
		"notify_failures", summary.NotifyFailures,
		"alerts", summary.AlertsRaised,
	)
	return summary
}

// processMessage runs decode, alerts, write, notify for one message. A write
// failure does not prevent the notification.
func (p *Processor) processMessage(ctx context.Context, msg domain.RawMessage) domain.BatchSummary {
	out := domain.BatchSummary{Received: 1}
	logger := p.logger.With("message_id", msg.ID)

	reading, err := domain.ParseReading(msg.Body)
	if err != nil {
		logger.Warn("decode failed, skipping message", "error", err, "payload", string(msg.Body))
		p.metrics.MessagesSkipped.Inc()
		p.metrics.StageErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		out.Skipped = 1
		return out
	}
	out.Processed = 1
	p.metrics.MessagesProcessed.Inc()

	alerts := domain.EvaluateAlerts(reading)
	out.AlertsRaised = len(alerts)
	for _, a := range alerts {
		p.metrics.Alerts.WithLabelValues(string(a.Kind)).Inc()
	}

	n, err := p.store.Write(ctx, reading)
	if err != nil {
		logger.Error("write failed", "error", err, "payload", string(msg.Body))
		p.metrics.StageErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		out.WriteFailures = 1
	} else {
		p.metrics.PointsWritten.Add(float64(n))
	}

	if err := p.notifier.Notify(ctx, domain.BuildNotification(reading, alerts)); err != nil {
		logger.Error("notify failed", "error", err, "location", reading.Location)
		p.metrics.StageErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		out.NotifyFailures = 1
	}

	logger.Debug("message processed", "location", reading.Location, "alerts", len(alerts))
	return out
}
