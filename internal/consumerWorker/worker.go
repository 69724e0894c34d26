package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"nryli/internal/dto"
	"nryli/internal/mailer"
	"nryli/internal/model"
	"nryli/internal/repo"
)

// Consumer delivers queued message bodies to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler func([]byte) error) error
}

// Notifier sends one confirmation email.
type Notifier interface {
	Notify(ctx context.Context, reg model.Registration) mailer.Result
}

type Reader struct {
	consumer Consumer
	repo     repo.Repository
	notifier Notifier
	log      *zerolog.Logger
	done     chan struct{}
	cancel   context.CancelFunc
}

func NewReader(consumer Consumer, repo repo.Repository, notifier Notifier, log *zerolog.Logger) *Reader {
	return &Reader{
		consumer: consumer,
		repo:     repo,
		notifier: notifier,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("confirmation email reader started")

	go func() {
		defer close(r.done)

		if err := r.consumer.Consume(cctx, func(body []byte) error {
			return r.Handle(cctx, body)
		}); err != nil {
			r.log.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		r.log.Info().Msg("confirmation email reader stopped by context")
	}()
}

// Handle processes one queued confirmation request. Only a failed store read
// is returned for redelivery; an email is never retried.
func (r *Reader) Handle(ctx context.Context, body []byte) error {
	var msg dto.ConfirmationMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.RegistrationID == "" {
		r.log.Error().
			Err(err).
			Msgf("dropping malformed confirmation message: %s", string(body))
		return nil
	}

	reg := msg.Registration
	if reg == nil || reg.RegistrationID != msg.RegistrationID {
		var err error
		reg, err = r.repo.GetByRegistrationID(ctx, msg.RegistrationID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				r.log.Warn().
					Str("registration_id", msg.RegistrationID).
					Msg("registration for confirmation message not found")
				return nil
			}
			r.log.Error().
				Err(err).
				Str("registration_id", msg.RegistrationID).
				Msg("failed to get registration in worker")
			return err
		}
	}

	res := r.notifier.Notify(ctx, *reg)
	if !res.Success {
		r.log.Warn().
			Str("registration_id", msg.RegistrationID).
			Str("error", res.Error).
			Msg("confirmation email not sent")
	}
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
