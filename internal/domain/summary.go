package domain

// FetchSummary is the result of one fetcher invocation.
type FetchSummary struct {
	Success   bool
	MessageID string
	Reading   WeatherReading
}

// BatchSummary is the fold over one processor batch. Received always equals
// Processed + Skipped; write and notify failures are counted among Processed.
type BatchSummary struct {
	Received       int `json:"received"`
	Processed      int `json:"processed"`
	Skipped        int `json:"skipped"`
	WriteFailures  int `json:"write_failures"`
	NotifyFailures int `json:"notify_failures"`
	AlertsRaised   int `json:"alerts_raised"`
}

// Add merges another summary into s.
func (s *BatchSummary) Add(o BatchSummary) {
	s.Received += o.Received
	s.Processed += o.Processed
	s.Skipped += o.Skipped
	s.WriteFailures += o.WriteFailures
	s.NotifyFailures += o.NotifyFailures
	s.AlertsRaised += o.AlertsRaised
}
