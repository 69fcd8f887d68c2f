// Command preview shows what the service would do with one observation,
// without touching any queue, store, or webhook. It parses either a saved
// provider response (as the fetcher does) or a queue message (as the
// processor does) and prints the reading, its alerts, the measure points, and
// the exact webhook payload.
//
// Usage:
//
//	go run ./cmd/preview -provider internal/adapter/openweather/testdata/current.json
//	go run ./cmd/preview -reading message.json
//	go run ./cmd/preview -provider response.json -at 2024-04-26T14:50:00Z
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-notification-service/internal/adapter/discord"
	"github.com/couchcryptid/weather-notification-service/internal/adapter/openweather"
	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	providerPath := fs.String("provider", "", "path to a saved OpenWeather current-weather response")
	readingPath := fs.String("reading", "", "path to a queue message body (WeatherReading JSON)")
	at := fs.String("at", "", "fetch time for -provider as RFC3339 (default: now)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if (*providerPath == "") == (*readingPath == "") {
		fmt.Fprintln(stderr, "exactly one of -provider or -reading is required")
		fs.Usage()
		return 2
	}

	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -at: %v\n", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	path := *readingPath
	if *providerPath != "" {
		path = *providerPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}

	reading, err := parse(data, *providerPath != "")
	if err != nil {
		fmt.Fprintf(stderr, "FAIL (%s): %v\n", domain.ErrorKind(err), err)
		return 1
	}

	if err := render(stdout, reading); err != nil {
		fmt.Fprintf(stderr, "render: %v\n", err)
		return 1
	}
	return 0
}

func parse(data []byte, provider bool) (domain.WeatherReading, error) {
	if provider {
		return openweather.ParseResponse(data, domain.Now())
	}
	return domain.ParseReading(data)
}

func render(w io.Writer, r domain.WeatherReading) error {
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "=== Reading ===")
	fmt.Fprintln(w, string(body))

	alerts := domain.EvaluateAlerts(r)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "=== Alerts (%d) ===\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s] %s\n", a.Kind, a.Message)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Measure points ===")
	for _, p := range domain.MeasurePoints(r) {
		fmt.Fprintf(w, "  %-12s %10g  at %d ms\n", p.Name, p.Value, p.Time.UnixMilli())
	}

	payload, err := json.MarshalIndent(discord.BuildPayload(domain.BuildNotification(r, alerts)), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Webhook payload ===")
	fmt.Fprintln(w, string(payload))
	return nil
}
