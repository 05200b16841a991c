package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// EventLocationUpdate is the only event pushed to tracking subscribers.
const EventLocationUpdate = "location-update"

// LocationUpdate is the data part of a location-update event.
type LocationUpdate struct {
	OrderID  uuid.UUID            `json:"orderId"`
	Location types.GeographyPoint `json:"location"`
}

// Event is the frame written to websocket clients and published on the broker.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, payload any) (int64, error)
}

type redisSubscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
}

// Subscription delivers raw event frames for one order until closed.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// Broker fans location updates out through one Redis channel per order.
type Broker struct {
	pub    redisPublisher
	sub    redisSubscriber
	prefix string
}

// NewBroker wires the broker to the shared redis client.
func NewBroker(pub redisPublisher, sub redisSubscriber, prefix string) (*Broker, error) {
	if pub == nil {
		return nil, errors.New("redis publisher required")
	}
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return nil, errors.New("tracking channel prefix required")
	}
	return &Broker{pub: pub, sub: sub, prefix: prefix}, nil
}

// Channel returns the redis channel carrying updates for orderID.
func (b *Broker) Channel(orderID uuid.UUID) string {
	return b.prefix + ":" + orderID.String()
}

// Publish sends one location-update frame and returns the receiver count.
func (b *Broker) Publish(ctx context.Context, update LocationUpdate) (int64, error) {
	payload, err := json.Marshal(Event{Event: EventLocationUpdate, Data: update})
	if err != nil {
		return 0, fmt.Errorf("encode location update: %w", err)
	}
	return b.pub.Publish(ctx, b.Channel(update.OrderID), payload)
}

// Subscribe opens a dedicated redis subscription for orderID.
func (b *Broker) Subscribe(ctx context.Context, orderID uuid.UUID) (Subscription, error) {
	if b.sub == nil {
		return nil, errors.New("redis subscriber required")
	}
	ps, err := b.sub.Subscribe(ctx, b.Channel(orderID))
	if err != nil {
		return nil, err
	}
	return newRedisSubscription(ps), nil
}

type redisSubscription struct {
	ps   *goredis.PubSub
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newRedisSubscription(ps *goredis.PubSub) *redisSubscription {
	s := &redisSubscription{ps: ps, out: make(chan []byte), done: make(chan struct{})}
	go s.pump(ps.Channel())
	return s
}

func (s *redisSubscription) pump(in <-chan *goredis.Message) {
	defer close(s.out)
	for msg := range in {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
