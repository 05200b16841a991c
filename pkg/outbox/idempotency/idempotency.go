// Package idempotency dedupes event deliveries per consumer.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/mealbridge-backend/pkg/redis"
)

var (
	ErrMissingConsumer = errors.New("idempotency: consumer name is empty")
	ErrMissingEventID  = errors.New("idempotency: event id is empty")
)

// Manager records which event ids a consumer has already handled. A marker
// lives for ttl; zero keeps it forever.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency: store is nil")
	case ttl < 0:
		return nil, errors.New("idempotency: negative ttl")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// CheckAndMarkProcessed claims eventID for consumer. It reports true when a
// previous delivery already holds the claim.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, m.now().UTC().Format(time.RFC3339), m.ttl)
	return !claimed && err == nil, err
}

// Release drops the claim so the next redelivery is handled again.
func (m *Manager) Release(ctx context.Context, consumer, eventID string) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer, eventID string) (string, error) {
	consumer, eventID = strings.TrimSpace(consumer), strings.TrimSpace(eventID)
	if consumer == "" {
		return "", ErrMissingConsumer
	}
	if eventID == "" {
		return "", ErrMissingEventID
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID), nil
}
