package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRegistration(OutcomeSuccess)
	m.IncRegistration(OutcomeSuccess)
	m.IncRegistration(OutcomeInvalid)
	m.IncStatusUpdate("approved")
	m.IncNotification(Outcome(true))
	m.IncNotification(Outcome(false))
	m.IncNotification(OutcomeQueued)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusUpdates.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(OutcomeQueued)))
}
