package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
	"github.com/couchcryptid/weather-notification-service/internal/observability"
)

// DefaultBaseURL is the current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches current conditions from the OpenWeather API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Current returns the reading for one coordinate pair, stamped with the
// current clock time. Transport failures and non-2xx statuses wrap
// domain.ErrFetch; an incomplete body wraps domain.ErrParse.
func (c *Client) Current(ctx context.Context, lat, lon float64) (domain.WeatherReading, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: create request: %w", domain.ErrFetch, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ProviderDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return domain.WeatherReading{}, fmt.Errorf("%w: weather request: %w", domain.ErrFetch, redact(err))
	}
	defer resp.Body.Close()

	c.metrics.ProviderDuration.WithLabelValues(observability.StatusLabel(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherReading{}, fmt.Errorf("%w: openweather API error: status %d: %s",
			domain.ErrFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: read response: %w", domain.ErrFetch, err)
	}

	reading, err := ParseResponse(data, domain.Now())
	if err != nil {
		return domain.WeatherReading{}, err
	}

	c.logger.Debug("weather fetched",
		"location", reading.Location,
		"temperature", reading.Temperature,
		"condition", reading.Condition,
	)
	return reading, nil
}

// ParseResponse reshapes a current-weather body into a reading stamped at.
// Every consumed field must be present; nothing is defaulted.
func ParseResponse(data []byte, at time.Time) (domain.WeatherReading, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.WeatherReading{}, fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}

	if missing := r.missing(); len(missing) > 0 {
		return domain.WeatherReading{}, fmt.Errorf("%w: response missing fields: %s",
			domain.ErrParse, strings.Join(missing, ", "))
	}

	reading := domain.WeatherReading{
		Location:    *r.Name,
		Timestamp:   at.Unix(),
		Temperature: *r.Main.Temp,
		FeelsLike:   *r.Main.FeelsLike,
		Condition:   *r.Weather[0].Main,
		Description: *r.Weather[0].Description,
		WindSpeed:   *r.Wind.Speed,
		Humidity:    *r.Main.Humidity,
		Coordinates: domain.Coordinates{Lat: *r.Coord.Lat, Lon: *r.Coord.Lon},
	}
	if err := reading.Validate(); err != nil {
		return domain.WeatherReading{}, err
	}
	return reading, nil
}

// OpenWeather API response types. Pointers distinguish an absent key from zero.

type response struct {
	Name  *string `json:"name"`
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        *string `json:"main"`
		Description *string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

func (r *response) missing() []string {
	var out []string
	need := func(ok bool, name string) {
		if !ok {
			out = append(out, name)
		}
	}

	need(r.Name != nil, "name")

	need(r.Main != nil, "main")
	if r.Main != nil {
		need(r.Main.Temp != nil, "main.temp")
		need(r.Main.FeelsLike != nil, "main.feels_like")
		need(r.Main.Humidity != nil, "main.humidity")
	}

	need(len(r.Weather) > 0, "weather[0]")
	if len(r.Weather) > 0 {
		need(r.Weather[0].Main != nil, "weather[0].main")
		need(r.Weather[0].Description != nil, "weather[0].description")
	}

	need(r.Wind != nil, "wind")
	if r.Wind != nil {
		need(r.Wind.Speed != nil, "wind.speed")
	}

	need(r.Coord != nil, "coord")
	if r.Coord != nil {
		need(r.Coord.Lat != nil, "coord.lat")
		need(r.Coord.Lon != nil, "coord.lon")
	}
	return out
}

// redact drops the request URL from transport errors since its query carries
// the API key.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s %s: %w", urlErr.Op, redactedURL(urlErr.URL), urlErr.Err)
	}
	return err
}

func redactedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<request url>"
	}
	u.RawQuery = ""
	return u.String()
}
