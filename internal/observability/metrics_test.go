package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, func() (err error) {
		for _, c := range m.collectors() {
			if err = reg.Register(c); err != nil {
				return err
			}
		}
		return nil
	}())

	m.Alerts.WithLabelValues("high_wind").Inc()
	m.MessagesSkipped.Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(m.Alerts.WithLabelValues("high_wind")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesSkipped), 0)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "success", StatusLabel(200))
	assert.Equal(t, "success", StatusLabel(204))
	assert.Equal(t, "client_error", StatusLabel(401))
	assert.Equal(t, "server_error", StatusLabel(503))
	assert.Equal(t, "error", StatusLabel(0))
}
