package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/weather-notification-service/internal/adapter/http"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(ready httpadapter.ReadinessChecker, clock clockwork.Clock) *httpadapter.Server {
	return httpadapter.NewServer(httpadapter.Options{
		Addr:    "127.0.0.1:0",
		Service: "processor",
		Ready:   ready,
		Clock:   clock,
		Logger:  discardLogger(),
	})
}

func readyErr(err error) httpadapter.ReadinessChecker {
	return httpadapter.ReadinessFunc(func(context.Context) error { return err })
}

func get(t *testing.T, srv *httpadapter.Server, path string) (int, httpadapter.Status) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var st httpadapter.Status
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return rec.Code, st
}

func TestHealthz_ReportsServiceAndUptime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newTestServer(readyErr(nil), clock)
	clock.Advance(90*time.Second + 400*time.Millisecond)

	code, st := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, httpadapter.Status{Service: "processor", Status: "healthy", Uptime: "1m30s"}, st)
}

func TestHealthz_IgnoresReadiness(t *testing.T) {
	code, _ := get(t, newTestServer(readyErr(errors.New("no batch yet")), nil), "/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		want     string
		wantErr  string
	}{
		{name: "ready", wantCode: http.StatusOK, want: "ready"},
		{name: "not ready", err: errors.New("no batch yet"), wantCode: http.StatusServiceUnavailable, want: "not ready", wantErr: "no batch yet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, st := get(t, newTestServer(readyErr(tt.err), nil), "/readyz")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, st.Status)
			assert.Equal(t, tt.wantErr, st.Error)
		})
	}
}

func TestReadyz_ChecksRunUnderDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	srv := httpadapter.NewServer(httpadapter.Options{
		Service:      "fetcher",
		CheckTimeout: 250 * time.Millisecond,
		Ready: httpadapter.ReadinessFunc(func(ctx context.Context) error {
			deadline, ok = ctx.Deadline()
			return nil
		}),
		Logger: discardLogger(),
	})

	code, _ := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(250*time.Millisecond), deadline, 250*time.Millisecond)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(readyErr(nil), nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRouteReturns404(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(readyErr(nil), nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer(readyErr(nil), nil).Serve(ctx, time.Second) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_ListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:   l.Addr().String(),
		Ready:  readyErr(nil),
		Logger: discardLogger(),
	})
	err = srv.Serve(context.Background(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
