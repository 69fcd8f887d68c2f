// Package domain models current-weather readings and the alerts derived from
// them.
//
// # Data Source
//
// Readings originate from the OpenWeather current weather endpoint
// (https://api.openweathermap.org/data/2.5/weather) queried by coordinates
// with units=metric. The fetcher reshapes the provider payload into a
// [WeatherReading] and publishes it as JSON on the queue. The processor
// decodes it again with [ParseReading].
//
// # Units
//
//	temperature, feels_like   degrees Celsius, passed through unchanged
//	wind_speed                meters per second
//	humidity                  integer percent, 0-100
//	timestamp                 epoch seconds at fetch time
//
// # Alert thresholds
//
// Evaluated by [EvaluateAlerts] in this fixed order; several may fire at once:
//
//	temperature > 30°C   high temperature
//	temperature <  0°C   low temperature
//	wind_speed  > 20 m/s high wind
//	humidity    > 80%    high humidity
//
// # Measure points
//
// A reading is stored as four points (temperature, feels_like, humidity,
// wind_speed) sharing one millisecond timestamp and the dimensions
// {location, condition}. See [MeasurePoints].
//
// # Errors
//
// Failures are classified with the sentinel errors in errors.go. Adapters wrap
// them, and [ErrorKind] maps any wrapped error back to a stable label.
package domain
