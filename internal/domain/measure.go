package domain

import (
	"time"
)

// Measure names written to the metrics store.
const (
	MeasureTemperature = "temperature"
	MeasureFeelsLike   = "feels_like"
	MeasureHumidity    = "humidity"
	MeasureWindSpeed   = "wind_speed"
)

// Dimension is a name/value pair attached to a measure point.
type Dimension struct {
	Name  string
	Value string
}

// MeasurePoint is one (dimensions, measure, value, time) tuple.
//
// Humidity arrives as an integer percent but is written as a float64 like the
// other measures so every measure shares one numeric type in the store.
type MeasurePoint struct {
	Dimensions []Dimension
	Name       string
	Value      float64
	Time       time.Time
}

// MeasurePoints expands a reading into its four measure points. All points
// share the reading's timestamp and the {location, condition} dimension set.
func MeasurePoints(r WeatherReading) []MeasurePoint {
	at := time.Unix(r.Timestamp, 0).UTC()
	dims := []Dimension{
		{Name: "location", Value: r.Location},
		{Name: "condition", Value: r.Condition},
	}
	return []MeasurePoint{
		{Dimensions: dims, Name: MeasureTemperature, Value: r.Temperature, Time: at},
		{Dimensions: dims, Name: MeasureFeelsLike, Value: r.FeelsLike, Time: at},
		{Dimensions: dims, Name: MeasureHumidity, Value: float64(r.Humidity), Time: at},
		{Dimensions: dims, Name: MeasureWindSpeed, Value: r.WindSpeed, Time: at},
	}
}
