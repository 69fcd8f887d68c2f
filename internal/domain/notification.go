package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotificationTimeLayout formats the reading time shown in notifications.
const NotificationTimeLayout = "2006-01-02 15:04:05 UTC"

// AlertNotification is the transient view of a reading that the chat webhook
// renders. It is never persisted.
type AlertNotification struct {
	Location  string
	Time      string
	Condition string
	Alerts    []string
	Details   string

	// ObservedAt is the reading time, carried for webhook timestamps.
	ObservedAt time.Time
}

// HasAlerts reports whether any threshold was breached.
func (n AlertNotification) HasAlerts() bool {
	return len(n.Alerts) > 0
}

// BuildNotification derives the notification for a reading and its alerts.
func BuildNotification(r WeatherReading, alerts []Alert) AlertNotification {
	observed := time.Unix(r.Timestamp, 0).UTC()

	msgs := make([]string, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, a.Message)
	}

	return AlertNotification{
		Location:   r.Location,
		Time:       observed.Format(NotificationTimeLayout),
		Condition:  r.Condition,
		Alerts:     msgs,
		Details:    formatDetails(r),
		ObservedAt: observed,
	}
}

func formatDetails(r WeatherReading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Temperature: %.1f°C (feels like %.1f°C)\n", r.Temperature, r.FeelsLike)
	fmt.Fprintf(&b, "Conditions: %s\n", r.Description)
	fmt.Fprintf(&b, "Wind: %.1f m/s\n", r.WindSpeed)
	fmt.Fprintf(&b, "Humidity: %d%%", r.Humidity)
	return b.String()
}
