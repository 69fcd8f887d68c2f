package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// Embed colors.
const (
	ColorAlert  = 0xE74C3C
	ColorUpdate = 0x3498DB
)

const footerText = "Weather Notification Service"

// Webhook posts notifications to a Discord channel webhook.
// It implements pipeline.Notifier.
type Webhook struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhook creates a notifier for the webhook URL.
func NewWebhook(url string, timeout time.Duration, logger *slog.Logger) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Notify posts one embed. Discord answers 204 No Content on success; any other
// status, or a transport failure, wraps domain.ErrNotify.
func (w *Webhook) Notify(ctx context.Context, n domain.AlertNotification) error {
	body, err := json.Marshal(BuildPayload(n))
	if err != nil {
		return fmt.Errorf("%w: encode payload: %w", domain.ErrNotify, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrNotify, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: webhook request: %w", domain.ErrNotify, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: discord webhook: status %d: %s",
			domain.ErrNotify, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	w.logger.Debug("notification sent", "location", n.Location, "alerts", len(n.Alerts))
	return nil
}

// Payload is the webhook request body.
type Payload struct {
	Embeds []Embed `json:"embeds"`
}

// Embed is one Discord rich embed.
type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields"`
	Footer      Footer  `json:"footer"`
	Timestamp   string  `json:"timestamp"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Footer struct {
	Text string `json:"text"`
}

// BuildPayload renders a notification as a single embed. Alerting readings get
// a red embed listing the alerts; quiet readings get a blue update.
func BuildPayload(n domain.AlertNotification) Payload {
	e := Embed{
		Title:       "Weather Update: " + n.Location,
		Description: "No alerts. Conditions are within normal thresholds.",
		Color:       ColorUpdate,
		Fields: []Field{
			{Name: "Time", Value: n.Time, Inline: true},
			{Name: "Condition", Value: n.Condition, Inline: true},
			{Name: "Details", Value: n.Details, Inline: false},
		},
		Footer:    Footer{Text: footerText},
		Timestamp: n.ObservedAt.UTC().Format(time.RFC3339),
	}
	if n.HasAlerts() {
		e.Title = "Weather Alert: " + n.Location
		e.Description = strings.Join(n.Alerts, "\n")
		e.Color = ColorAlert
	}
	return Payload{Embeds: []Embed{e}}
}
