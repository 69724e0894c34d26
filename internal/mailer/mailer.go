// Package mailer renders and sends the registration confirmation email.
// Delivery is best effort and at most once: failures come back as a Result,
// never as a Go error, and nothing is retried.
package mailer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"nryli/internal/model"
)

var ErrNoProvider = errors.New("email provider is not configured")

// Result is the outcome of one confirmation attempt.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Notifier struct {
	sender  Sender
	from    string
	event   Event
	timeout time.Duration
	log     *zerolog.Logger
}

// NewNotifier builds a Notifier; a nil sender makes every attempt fail with ErrNoProvider.
func NewNotifier(sender Sender, from string, event Event, timeout time.Duration, log *zerolog.Logger) *Notifier {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Notifier{sender: sender, from: from, event: event, timeout: timeout, log: log}
}

// Notify sends the confirmation email for a stored registration.
func (n *Notifier) Notify(ctx context.Context, reg model.Registration) Result {
	if n.sender == nil {
		return n.fail(reg, ErrNoProvider)
	}
	html, err := RenderConfirmation(n.event, reg)
	if err != nil {
		return n.fail(reg, err)
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	id, err := n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{reg.DelegateEmail},
		Subject: confirmationSubject(reg),
		HTML:    html,
	})
	if err != nil {
		return n.fail(reg, err)
	}

	n.log.Info().
		Str("registration_id", reg.RegistrationID).
		Str("email", reg.DelegateEmail).
		Str("message_id", id).
		Msg("confirmation email sent")
	return Result{Success: true, MessageID: id}
}

func (n *Notifier) fail(reg model.Registration, err error) Result {
	n.log.Warn().
		Err(err).
		Str("registration_id", reg.RegistrationID).
		Str("email", reg.DelegateEmail).
		Msg("failed to send confirmation email")
	return Result{Success: false, Error: err.Error()}
}
