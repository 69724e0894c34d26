package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nryli/internal/dto"
	"nryli/internal/mailer"
	"nryli/internal/metrics"
	"nryli/internal/model"
)

type fakePublisher struct {
	messages [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, message []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

func TestQueueHookPublishesConfirmationMessage(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.New(prometheus.NewRegistry())
	log := zerolog.Nop()
	hook := NewQueueHook(pub, m, &log)

	hook.AfterCommit(context.Background(), model.Registration{RegistrationID: "NRYLI2025-00000001"})

	require.Len(t, pub.messages, 1)
	var msg dto.ConfirmationMessage
	require.NoError(t, json.Unmarshal(pub.messages[0], &msg))
	assert.Equal(t, "NRYLI2025-00000001", msg.RegistrationID)
	assert.False(t, msg.RequestedAt.IsZero())
	require.NotNil(t, msg.Registration)
	assert.Equal(t, "NRYLI2025-00000001", msg.Registration.RegistrationID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(metrics.OutcomeQueued)))
}

func TestQueueHookSwallowsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	m := metrics.New(prometheus.NewRegistry())
	log := zerolog.Nop()

	NewQueueHook(pub, m, &log).AfterCommit(context.Background(), model.Registration{RegistrationID: "x"})

	assert.Empty(t, pub.messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(metrics.OutcomeQueueFailed)))
}

func TestNotifyHookCountsOutcome(t *testing.T) {
	n := &stubNotifier{res: mailer.Result{Success: false, Error: "down"}}
	m := metrics.New(prometheus.NewRegistry())

	NewNotifyHook(n, m).AfterCommit(context.Background(), model.Registration{RegistrationID: "x"})

	assert.Equal(t, []string{"x"}, n.regs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(metrics.OutcomeFailed)))
}
