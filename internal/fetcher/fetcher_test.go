package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
)

type mockClient struct {
	reading domain.WeatherReading
	err     error
	lat     float64
	lon     float64
}

func (m *mockClient) Current(_ context.Context, lat, lon float64) (domain.WeatherReading, error) {
	m.lat, m.lon = lat, lon
	return m.reading, m.err
}

type mockPublisher struct {
	published []domain.WeatherReading
	id        string
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, r domain.WeatherReading) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.published = append(m.published, r)
	return m.id, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReading() domain.WeatherReading {
	return domain.WeatherReading{
		Location:    "Cluj-Napoca",
		Timestamp:   1714143000,
		Temperature: 12.4,
		FeelsLike:   11.6,
		Condition:   "Rain",
		Description: "light rain",
		WindSpeed:   4.12,
		Humidity:    82,
		Coordinates: domain.Coordinates{Lat: 46.7712, Lon: 23.6236},
	}
}

func TestService_Run_Success(t *testing.T) {
	client := &mockClient{reading: testReading()}
	pub := &mockPublisher{id: "msg-1"}
	metrics := observability.NewMetricsForTesting()
	svc := NewService(client, pub, 46.7712, 23.6236, discardLogger(), metrics)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, "msg-1", summary.MessageID)
	assert.Equal(t, testReading(), summary.Reading)
	assert.Equal(t, 46.7712, client.lat)
	assert.Equal(t, 23.6236, client.lon)
	require.Len(t, pub.published, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Fetches.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MessagesPublished), 0)
}

func TestService_Run_FetchErrorPublishesNothing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"provider status", fmt.Errorf("%w: status 503", domain.ErrFetch), "fetch"},
		{"missing field", fmt.Errorf("%w: response missing fields: wind", domain.ErrParse), "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{id: "unused"}
			metrics := observability.NewMetricsForTesting()
			svc := NewService(&mockClient{err: tt.err}, pub, 0, 0, discardLogger(), metrics)

			summary, err := svc.Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.False(t, summary.Success)
			assert.Empty(t, pub.published)
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.Fetches.WithLabelValues(tt.kind)), 0)
		})
	}
}

func TestService_Run_PublishError(t *testing.T) {
	pub := &mockPublisher{err: fmt.Errorf("%w: send message: throttled", domain.ErrPublish)}
	metrics := observability.NewMetricsForTesting()
	svc := NewService(&mockClient{reading: testReading()}, pub, 0, 0, discardLogger(), metrics)

	summary, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrPublish)
	assert.False(t, summary.Success)
	assert.Empty(t, summary.MessageID)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Fetches.WithLabelValues("publish")), 0)
}

func TestService_HandleScheduled_Success(t *testing.T) {
	svc := NewService(&mockClient{reading: testReading()}, &mockPublisher{id: "msg-9"}, 0, 0,
		discardLogger(), observability.NewMetricsForTesting())

	resp, err := svc.HandleScheduled(context.Background(), events.CloudWatchEvent{ID: "evt-1", Source: "aws.events"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Message   string                `json:"message"`
		MessageID string                `json:"messageId"`
		Data      domain.WeatherReading `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, SuccessMessage, body.Message)
	assert.Equal(t, "msg-9", body.MessageID)
	assert.Equal(t, testReading(), body.Data)
}

func TestService_HandleScheduled_Failure(t *testing.T) {
	svc := NewService(&mockClient{err: fmt.Errorf("%w: status 401", domain.ErrFetch)}, &mockPublisher{}, 0, 0,
		discardLogger(), observability.NewMetricsForTesting())

	resp, err := svc.HandleScheduled(context.Background(), events.CloudWatchEvent{})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"fetch error: status 401"}`, resp.Body)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every tuesday", RunnerFunc(func(context.Context) error { return nil }), time.Second, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")
}

func TestScheduler_Readiness(t *testing.T) {
	var fail atomic.Bool
	runner := RunnerFunc(func(context.Context) error {
		if fail.Load() {
			return errors.New("provider down")
		}
		return nil
	})

	s, err := NewScheduler("@hourly", runner, time.Second, discardLogger())
	require.NoError(t, err)

	assert.Error(t, s.CheckReadiness(context.Background()), "not started")

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	assert.NoError(t, s.CheckReadiness(context.Background()))

	fail.Store(true)
	s.RunOnce(context.Background())
	err = s.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")

	fail.Store(false)
	s.RunOnce(context.Background())
	assert.NoError(t, s.CheckReadiness(context.Background()))
}

func TestScheduler_RunOnceAppliesTimeout(t *testing.T) {
	var deadline atomic.Bool
	runner := RunnerFunc(func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadline.Store(ok)
		return nil
	})

	s, err := NewScheduler("@every 1h", runner, 50*time.Millisecond, discardLogger())
	require.NoError(t, err)

	s.RunOnce(context.Background())
	assert.True(t, deadline.Load())
}
