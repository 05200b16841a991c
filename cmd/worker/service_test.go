package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubPubSub struct {
	pingErr error
	subErr  error
}

func (s stubPubSub) Ping(context.Context) error                     { return s.pingErr }
func (s stubPubSub) EnsureDomainSubscription(context.Context) error { return s.subErr }

type runnerFunc func(context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func newWorker(t *testing.T, ps stubPubSub, run runnerFunc) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:               logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:                   stubPinger{},
		Redis:                stubPinger{},
		PubSub:               ps,
		NotificationConsumer: run,
	})
	require.NoError(t, err)
	return svc
}

func TestRunReturnsContextErrorOnCancel(t *testing.T) {
	svc := newWorker(t, stubPubSub{}, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
}

func TestRunSurfacesConsumerFailure(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc := newWorker(t, stubPubSub{}, func(context.Context) error { return boom })
	require.ErrorIs(t, svc.Run(context.Background()), boom)
}

func TestRunTreatsEarlyConsumerExitAsFailure(t *testing.T) {
	svc := newWorker(t, stubPubSub{}, func(context.Context) error { return nil })
	require.EqualError(t, svc.Run(context.Background()), "notification consumer exited")
}

func TestRunChecksDomainSubscription(t *testing.T) {
	called := false
	svc := newWorker(t, stubPubSub{subErr: errors.New("missing")}, func(context.Context) error {
		called = true
		return nil
	})
	err := svc.Run(context.Background())
	require.ErrorContains(t, err, "domain subscription ping failed")
	require.False(t, called)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
