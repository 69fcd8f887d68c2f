package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeatherReading is the canonical queue message: one observation for one
// location, stamped at fetch time.
type WeatherReading struct {
	Location    string      `json:"location"`
	Timestamp   int64       `json:"timestamp"` // epoch seconds
	Temperature float64     `json:"temperature"`
	FeelsLike   float64     `json:"feels_like"`
	Condition   string      `json:"condition"`
	Description string      `json:"description"`
	WindSpeed   float64     `json:"wind_speed"`
	Humidity    int         `json:"humidity"`
	Coordinates Coordinates `json:"coordinates"`
}

// wireReading mirrors WeatherReading with pointer fields so an absent key can
// be told apart from a zero value.
type wireReading struct {
	Location    *string  `json:"location"`
	Timestamp   *int64   `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
	FeelsLike   *float64 `json:"feels_like"`
	Condition   *string  `json:"condition"`
	Description *string  `json:"description"`
	WindSpeed   *float64 `json:"wind_speed"`
	Humidity    *int     `json:"humidity"`
	Coordinates *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coordinates"`
}

// ParseReading decodes a queue message body into a WeatherReading. Every
// field must be present; the error wraps ErrParse.
func ParseReading(data []byte) (WeatherReading, error) {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return WeatherReading{}, fmt.Errorf("%w: decode reading: %w", ErrParse, err)
	}

	var missing []string
	need := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	need(w.Location != nil, "location")
	need(w.Timestamp != nil, "timestamp")
	need(w.Temperature != nil, "temperature")
	need(w.FeelsLike != nil, "feels_like")
	need(w.Condition != nil, "condition")
	need(w.Description != nil, "description")
	need(w.WindSpeed != nil, "wind_speed")
	need(w.Humidity != nil, "humidity")
	need(w.Coordinates != nil, "coordinates")
	if w.Coordinates != nil {
		need(w.Coordinates.Lat != nil, "coordinates.lat")
		need(w.Coordinates.Lon != nil, "coordinates.lon")
	}
	if len(missing) > 0 {
		return WeatherReading{}, fmt.Errorf("%w: reading missing fields: %s", ErrParse, strings.Join(missing, ", "))
	}

	r := WeatherReading{
		Location:    *w.Location,
		Timestamp:   *w.Timestamp,
		Temperature: *w.Temperature,
		FeelsLike:   *w.FeelsLike,
		Condition:   *w.Condition,
		Description: *w.Description,
		WindSpeed:   *w.WindSpeed,
		Humidity:    *w.Humidity,
		Coordinates: Coordinates{Lat: *w.Coordinates.Lat, Lon: *w.Coordinates.Lon},
	}
	if err := r.Validate(); err != nil {
		return WeatherReading{}, err
	}
	return r, nil
}

// Validate checks value ranges. Presence of fields is checked by ParseReading
// and by the provider client before a reading is constructed.
func (r WeatherReading) Validate() error {
	switch {
	case strings.TrimSpace(r.Location) == "":
		return fmt.Errorf("%w: location is empty", ErrParse)
	case strings.TrimSpace(r.Condition) == "":
		return fmt.Errorf("%w: condition is empty", ErrParse)
	case r.Timestamp <= 0:
		return fmt.Errorf("%w: timestamp %d is not a positive epoch", ErrParse, r.Timestamp)
	case r.Humidity < 0 || r.Humidity > 100:
		return fmt.Errorf("%w: humidity %d outside 0-100", ErrParse, r.Humidity)
	case r.Coordinates.Lat < -90 || r.Coordinates.Lat > 90:
		return fmt.Errorf("%w: latitude %g out of range", ErrParse, r.Coordinates.Lat)
	case r.Coordinates.Lon < -180 || r.Coordinates.Lon > 180:
		return fmt.Errorf("%w: longitude %g out of range", ErrParse, r.Coordinates.Lon)
	}
	return nil
}

// Encode serializes the reading as the queue message body.
func (r WeatherReading) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: encode reading: %w", ErrParse, err)
	}
	return data, nil
}
