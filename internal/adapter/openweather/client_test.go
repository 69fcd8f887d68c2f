package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
)

const testAPIKey = "test-key"

var fetchedAt = time.Date(2024, 4, 26, 14, 50, 0, 0, time.UTC)

func testClient(baseURL string) *Client {
	return NewClient(testAPIKey, baseURL, 5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fetchedAt))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/current.json")
	require.NoError(t, err)
	return data
}

func TestClient_Current_Success(t *testing.T) {
	freezeClock(t)
	fixture := loadFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "46.7712", q.Get("lat"))
		assert.Equal(t, "23.6236", q.Get("lon"))
		assert.Equal(t, testAPIKey, q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Current(context.Background(), 46.7712, 23.6236)
	require.NoError(t, err)

	want := domain.WeatherReading{
		Location:    "Cluj-Napoca",
		Timestamp:   fetchedAt.Unix(),
		Temperature: 12.4,
		FeelsLike:   11.6,
		Condition:   "Rain",
		Description: "light rain",
		WindSpeed:   4.12,
		Humidity:    82,
		Coordinates: domain.Coordinates{Lat: 46.7712, Lon: 23.6236},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Current_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), 46.7712, 23.6236)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_Current_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), 0, 0)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestClient_Current_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).Current(context.Background(), 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.NotContains(t, err.Error(), testAPIKey)
	assert.NotContains(t, err.Error(), "appid")
	assert.Contains(t, err.Error(), url)
}

func TestClient_Current_MissingWind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"coord": {"lon": 23.6, "lat": 46.7},
			"weather": [{"main": "Clear", "description": "clear sky"}],
			"main": {"temp": 20, "feels_like": 19, "humidity": 40},
			"name": "Cluj-Napoca"
		}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), 46.7, 23.6)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "wind")
}

func TestParseResponse_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing string
	}{
		{"no name", `{"coord":{"lat":1,"lon":2},"weather":[{"main":"a","description":"b"}],"main":{"temp":1,"feels_like":1,"humidity":1},"wind":{"speed":1}}`, "name"},
		{"no weather", `{"name":"x","coord":{"lat":1,"lon":2},"weather":[],"main":{"temp":1,"feels_like":1,"humidity":1},"wind":{"speed":1}}`, "weather[0]"},
		{"no description", `{"name":"x","coord":{"lat":1,"lon":2},"weather":[{"main":"a"}],"main":{"temp":1,"feels_like":1,"humidity":1},"wind":{"speed":1}}`, "weather[0].description"},
		{"no feels_like", `{"name":"x","coord":{"lat":1,"lon":2},"weather":[{"main":"a","description":"b"}],"main":{"temp":1,"humidity":1},"wind":{"speed":1}}`, "main.feels_like"},
		{"no coord lon", `{"name":"x","coord":{"lat":1},"weather":[{"main":"a","description":"b"}],"main":{"temp":1,"feels_like":1,"humidity":1},"wind":{"speed":1}}`, "coord.lon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tt.body), fetchedAt)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrParse)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestParseResponse_ZeroValuesArePresent(t *testing.T) {
	body := `{"name":"Nowhere","coord":{"lat":0,"lon":0},"weather":[{"main":"Clear","description":""}],"main":{"temp":0,"feels_like":0,"humidity":0},"wind":{"speed":0}}`

	r, err := ParseResponse([]byte(body), fetchedAt)
	require.NoError(t, err)
	assert.Zero(t, r.Temperature)
	assert.Zero(t, r.Humidity)
	assert.Equal(t, fetchedAt.Unix(), r.Timestamp)
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, err := ParseResponse([]byte("not json"), fetchedAt)
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.False(t, strings.Contains(err.Error(), "missing"))
}
