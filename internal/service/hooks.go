package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"nryli/internal/dto"
	"nryli/internal/mailer"
	"nryli/internal/metrics"
	"nryli/internal/model"
)

// Notifier sends the confirmation email for a stored registration.
type Notifier interface {
	Notify(ctx context.Context, reg model.Registration) mailer.Result
}

// Publisher puts one message on the confirmation queue.
type Publisher interface {
	Publish(ctx context.Context, message []byte) error
}

// PostCommitHook runs after a registration has been stored. It must not fail
// the submission: a stored registration stays stored whatever the hook does.
type PostCommitHook interface {
	AfterCommit(ctx context.Context, reg model.Registration)
}

type noopHook struct{}

func (noopHook) AfterCommit(context.Context, model.Registration) {}

// NoopHook leaves the confirmation email to an operator.
func NoopHook() PostCommitHook {
	return noopHook{}
}

type notifyHook struct {
	notifier Notifier
	metrics  *metrics.Metrics
}

// NewNotifyHook sends the confirmation email inline, before the response.
func NewNotifyHook(notifier Notifier, m *metrics.Metrics) PostCommitHook {
	return &notifyHook{notifier: notifier, metrics: m}
}

func (h *notifyHook) AfterCommit(ctx context.Context, reg model.Registration) {
	res := h.notifier.Notify(ctx, reg)
	if h.metrics != nil {
		h.metrics.IncNotification(metrics.Outcome(res.Success))
	}
}

type queueHook struct {
	publisher Publisher
	metrics   *metrics.Metrics
	log       *zerolog.Logger
	now       func() time.Time
}

// NewQueueHook hands the confirmation email to the consumer worker through RabbitMQ.
func NewQueueHook(publisher Publisher, m *metrics.Metrics, log *zerolog.Logger) PostCommitHook {
	return &queueHook{publisher: publisher, metrics: m, log: log, now: time.Now}
}

func (h *queueHook) AfterCommit(ctx context.Context, reg model.Registration) {
	payload, err := json.Marshal(dto.ConfirmationMessage{
		RegistrationID: reg.RegistrationID,
		RequestedAt:    h.now(),
		Registration:   &reg,
	})
	if err == nil {
		err = h.publisher.Publish(ctx, payload)
	}
	if err != nil {
		h.log.Warn().
			Err(err).
			Str("registration_id", reg.RegistrationID).
			Msg("failed to queue confirmation email")
		h.inc(metrics.OutcomeQueueFailed)
		return
	}
	h.log.Debug().Str("registration_id", reg.RegistrationID).Msg("confirmation email queued")
	h.inc(metrics.OutcomeQueued)
}

func (h *queueHook) inc(outcome string) {
	if h.metrics != nil {
		h.metrics.IncNotification(outcome)
	}
}
