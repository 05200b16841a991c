package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/registry"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type fakeResult struct {
	id  string
	err error
}

func (r fakeResult) Get(context.Context) (string, error) { return r.id, r.err }

type fakePublisher struct {
	mu       sync.Mutex
	messages []*gcppubsub.Message
	failFor  map[uuid.UUID]error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	aggregateID, _ := uuid.Parse(msg.Attributes["aggregate_id"])
	if err, ok := p.failFor[aggregateID]; ok {
		return fakeResult{err: err}
	}
	return fakeResult{id: "msg-1"}
}

type fixture struct {
	db   *gorm.DB
	repo *outbox.Repository
	pub  *fakePublisher
	reg  *prometheus.Registry
	svc  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := outbox.NewRepository(conn)
	pub := &fakePublisher{failFor: map[uuid.UUID]error{}}
	reg := prometheus.NewRegistry()
	cfg := &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 1, MaxAttempts: 3}}
	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}),
		DB:         stubPinger{},
		PubSub:     stubPinger{},
		Repository: repo,
		Registry:   registry.NewEventRegistry(),
		Publisher:  pub,
		Metrics:    metrics.NewJobMetrics(reg),
		Jitter:     func(d time.Duration) time.Duration { return d },
	})
	require.NoError(t, err)
	return &fixture{db: conn, repo: repo, pub: pub, reg: reg, svc: svc}
}

func (f *fixture) emitOrderCreated(t *testing.T) uuid.UUID {
	t.Helper()
	orderID := uuid.New()
	emitter := outbox.NewService(f.repo, nil)
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return emitter.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.OrderCreatedEvent{
				OrderID:       orderID,
				UserID:        uuid.New(),
				MealPackageID: uuid.New(),
			},
		})
	}))
	return orderID
}

func TestProcessBatchPublishesWithAttributes(t *testing.T) {
	f := newFixture(t)
	orderID := f.emitOrderCreated(t)

	processed, err := f.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, f.pub.messages, 1)
	msg := f.pub.messages[0]
	assert.Equal(t, string(enums.EventOrderCreated), msg.Attributes["event_type"])
	assert.Equal(t, orderID.String(), msg.Attributes["aggregate_id"])
	assert.NotEmpty(t, msg.Attributes["event_id"])

	var env outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, msg.Attributes["event_id"], env.EventID)

	pending, err := f.repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	f := newFixture(t)
	failing := f.emitOrderCreated(t)
	f.emitOrderCreated(t)
	f.pub.failFor[failing] = errors.New("deadline exceeded")

	processed, err := f.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	pending, err := f.repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, failing, pending[0].AggregateID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "deadline exceeded", *pending[0].LastError)
}

func TestProcessBatchStopsRetryingAtMaxAttempts(t *testing.T) {
	f := newFixture(t)
	failing := f.emitOrderCreated(t)
	f.pub.failFor[failing] = errors.New("unavailable")

	for i := 0; i < 3; i++ {
		_, err := f.svc.processBatch(context.Background())
		require.NoError(t, err)
	}
	processed, err := f.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Len(t, f.pub.messages, 3)
}

func TestProcessBatchParksUnknownEvents(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.OutboxEvent{
		EventType:     enums.OutboxEventType("order.refunded"),
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}).Error)

	processed, err := f.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Empty(t, f.pub.messages)

	capped, err := f.repo.FetchUnpublished(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Empty(t, capped)

	all, err := f.repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].AttemptCount)
}

func TestRunStopsOnCancelAndRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	f.emitOrderCreated(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := f.svc.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, f.pub.messages, 1)

	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	var successes float64
	for _, mf := range mfs {
		if mf.GetName() == "mealbridge_job_success_total" {
			successes = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), successes)
}

func TestRunFailsWhenDependencyIsDown(t *testing.T) {
	f := newFixture(t)
	f.svc.pubsub = stubPinger{err: errors.New("no topic")}

	err := f.svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pubsub ping failed")
}

func TestNextBackoffDoublesUpToCeiling(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextBackoff(8*time.Second, time.Second, 10*time.Second))
	assert.Equal(t, 2*time.Second, nextBackoff(0, time.Second, 10*time.Second))
}

func TestNewServiceRequiresPublisher(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{Output: io.Discard}),
		DB:         stubPinger{},
		PubSub:     stubPinger{},
		Repository: outbox.NewRepository(nil),
		Registry:   registry.NewEventRegistry(),
	})
	require.Error(t, err)
}
