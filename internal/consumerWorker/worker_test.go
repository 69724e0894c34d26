package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"nryli/internal/dto"
	"nryli/internal/mailer"
	"nryli/internal/model"
	"nryli/internal/repo"
	"nryli/internal/repo/mocks"
)

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fails bool
}

func (f *fakeNotifier) Notify(_ context.Context, reg model.Registration) mailer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, reg.RegistrationID)
	if f.fails {
		return mailer.Result{Success: false, Error: "boom"}
	}
	return mailer.Result{Success: true}
}

type fakeConsumer struct {
	ctx     context.Context
	handler func([]byte) error
	ready   chan struct{}
}

func (f *fakeConsumer) Consume(ctx context.Context, handler func([]byte) error) error {
	f.ctx = ctx
	f.handler = handler
	close(f.ready)
	return nil
}

func newReader(t *testing.T, n *fakeNotifier) (*Reader, *mocks.MockRepository, *fakeConsumer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRepository(ctrl)
	consumer := &fakeConsumer{ready: make(chan struct{})}
	log := zerolog.Nop()
	return NewReader(consumer, store, n, &log), store, consumer
}

func TestHandleSendsConfirmation(t *testing.T) {
	n := &fakeNotifier{}
	r, store, _ := newReader(t, n)
	store.EXPECT().GetByRegistrationID(gomock.Any(), "NRYLI2025-00000001").
		Return(&model.Registration{RegistrationID: "NRYLI2025-00000001"}, nil)

	err := r.Handle(context.Background(), []byte(`{"registration_id":"NRYLI2025-00000001"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"NRYLI2025-00000001"}, n.sent)
}

func TestHandleDoesNotRetryFailedEmail(t *testing.T) {
	n := &fakeNotifier{fails: true}
	r, store, _ := newReader(t, n)
	store.EXPECT().GetByRegistrationID(gomock.Any(), "id").Return(&model.Registration{RegistrationID: "id"}, nil)

	assert.NoError(t, r.Handle(context.Background(), []byte(`{"registration_id":"id"}`)))
	assert.Len(t, n.sent, 1)
}

func TestHandleDropsMalformedAndMissing(t *testing.T) {
	n := &fakeNotifier{}
	r, store, _ := newReader(t, n)

	assert.NoError(t, r.Handle(context.Background(), []byte(`not json`)))
	assert.NoError(t, r.Handle(context.Background(), []byte(`{}`)))

	store.EXPECT().GetByRegistrationID(gomock.Any(), "gone").Return(nil, repo.ErrNotFound)
	assert.NoError(t, r.Handle(context.Background(), []byte(`{"registration_id":"gone"}`)))
	assert.Empty(t, n.sent)
}

func TestHandleRequeuesOnStoreError(t *testing.T) {
	n := &fakeNotifier{}
	r, store, _ := newReader(t, n)
	store.EXPECT().GetByRegistrationID(gomock.Any(), "id").Return(nil, errors.New("connection refused"))

	assert.Error(t, r.Handle(context.Background(), []byte(`{"registration_id":"id"}`)))
	assert.Empty(t, n.sent)
}

func TestStartStop(t *testing.T) {
	n := &fakeNotifier{}
	r, store, consumer := newReader(t, n)
	store.EXPECT().GetByRegistrationID(gomock.Any(), "id").Return(&model.Registration{RegistrationID: "id"}, nil)

	r.Start(context.Background())
	select {
	case <-consumer.ready:
	case <-time.After(time.Second):
		t.Fatal("consumer was not started")
	}
	require.NoError(t, consumer.handler([]byte(`{"registration_id":"id"}`)))

	r.Stop()
	assert.Equal(t, []string{"id"}, n.sent)
	assert.Error(t, consumer.ctx.Err(), "consumption must stop with the reader")
}

func TestHandleUsesCarriedRegistration(t *testing.T) {
	n := &fakeNotifier{}
	// no store expectations: a lagging read replica must not be consulted
	r, _, _ := newReader(t, n)

	body, err := json.Marshal(dto.ConfirmationMessage{
		RegistrationID: "NRYLI2025-00000009",
		RequestedAt:    time.Now(),
		Registration:   &model.Registration{RegistrationID: "NRYLI2025-00000009", DelegateEmail: "jose@x.com"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Handle(context.Background(), body))
	assert.Equal(t, []string{"NRYLI2025-00000009"}, n.sent)
}

func TestHandleIgnoresCarriedRegistrationForOtherID(t *testing.T) {
	n := &fakeNotifier{}
	r, store, _ := newReader(t, n)
	store.EXPECT().GetByRegistrationID(gomock.Any(), "a").Return(&model.Registration{RegistrationID: "a"}, nil)

	body := []byte(`{"registration_id":"a","registration":{"registration_id":"b"}}`)
	require.NoError(t, r.Handle(context.Background(), body))
	assert.Equal(t, []string{"a"}, n.sent)
}
