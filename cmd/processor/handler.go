package main

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	sqsadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/sqs"
	"github.com/couchcryptid/weather-notification-service/internal/domain"
	"github.com/couchcryptid/weather-notification-service/internal/pipeline"
)

// sqsHandler returns the Lambda entry point for SQS batches. The batch summary
// is the invocation result; per-message failures are counted there and never
// fail the invocation.
func sqsHandler(p pipeline.BatchProcessor, logger *slog.Logger) func(context.Context, events.SQSEvent) (domain.BatchSummary, error) {
	return func(ctx context.Context, ev events.SQSEvent) (domain.BatchSummary, error) {
		invocation := uuid.NewString()
		summary := p.ProcessBatch(ctx, sqsadapter.MapEvent(ev))
		logger.Info("invocation complete",
			"invocation_id", invocation,
			"received", summary.Received,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"write_failures", summary.WriteFailures,
			"notify_failures", summary.NotifyFailures,
		)
		return summary, nil
	}
}
