package domain

import "fmt"

// AlertKind identifies which threshold a reading breached.
type AlertKind string

const (
	AlertHighTemperature AlertKind = "high_temperature"
	AlertLowTemperature  AlertKind = "low_temperature"
	AlertHighWind        AlertKind = "high_wind"
	AlertHighHumidity    AlertKind = "high_humidity"
)

// Alert thresholds. All comparisons are strict.
const (
	HighTemperatureC = 30.0
	LowTemperatureC  = 0.0
	HighWindMS       = 20.0
	HighHumidityPct  = 80
)

// Alert is one threshold breach with its human-readable message.
type Alert struct {
	Kind    AlertKind
	Message string
}

// EvaluateAlerts applies the fixed thresholds to a reading. The result is
// ordered high temperature, low temperature, wind, humidity, and is empty when
// nothing is breached.
func EvaluateAlerts(r WeatherReading) []Alert {
	var alerts []Alert
	if r.Temperature > HighTemperatureC {
		alerts = append(alerts, Alert{
			Kind:    AlertHighTemperature,
			Message: fmt.Sprintf("High temperature alert: %.1f°C", r.Temperature),
		})
	}
	if r.Temperature < LowTemperatureC {
		alerts = append(alerts, Alert{
			Kind:    AlertLowTemperature,
			Message: fmt.Sprintf("Low temperature alert: %.1f°C", r.Temperature),
		})
	}
	if r.WindSpeed > HighWindMS {
		alerts = append(alerts, Alert{
			Kind:    AlertHighWind,
			Message: fmt.Sprintf("High wind alert: %.1f m/s", r.WindSpeed),
		})
	}
	if r.Humidity > HighHumidityPct {
		alerts = append(alerts, Alert{
			Kind:    AlertHighHumidity,
			Message: fmt.Sprintf("High humidity alert: %d%%", r.Humidity),
		})
	}
	return alerts
}
