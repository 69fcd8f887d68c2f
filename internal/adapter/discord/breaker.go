package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// BreakerConfig controls when the webhook circuit opens.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

type notifier interface {
	Notify(ctx context.Context, n domain.AlertNotification) error
}

// BreakerNotifier stops calling the webhook after repeated failures. While the
// circuit is open notifications fail immediately with domain.ErrNotify; they
// are not queued or retried.
type BreakerNotifier struct {
	cb      *gobreaker.CircuitBreaker
	wrapped notifier
}

// NewBreakerNotifier wraps n with a circuit breaker.
func NewBreakerNotifier(n notifier, cfg BreakerConfig, logger *slog.Logger) *BreakerNotifier {
	settings := gobreaker.Settings{
		Name:        "discord-webhook",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerNotifier{cb: gobreaker.NewCircuitBreaker(settings), wrapped: n}
}

func (b *BreakerNotifier) Notify(ctx context.Context, n domain.AlertNotification) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.wrapped.Notify(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: webhook unavailable: %w", domain.ErrNotify, err)
	}
	return err
}

// State reports the breaker state, for logs and tests.
func (b *BreakerNotifier) State() string {
	return b.cb.State().String()
}
