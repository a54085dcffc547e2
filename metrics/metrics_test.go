package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ThrottleReject("login")
	m.Stripes("normal", "add", 3)
	m.Job("auto-unset", nil)
}

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ThrottleReject("login")
	m.ThrottleReject("login")
	m.Stripes("fulfilled", "delete", 2)
	m.Job("auto-unset", errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ThrottleRejected.WithLabelValues("login")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StripeEvents.WithLabelValues("fulfilled", "delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("auto-unset", "error")))
}
