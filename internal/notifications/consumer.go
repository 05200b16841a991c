package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

var errNacked = errors.New("message nacked")

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns order and payment domain events into stored notifications for the order owner.
type Consumer struct {
	repo         notificationWriter
	subscription *pubsub.Subscriber
	registry     *registry.EventRegistry
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	metrics      *metrics.JobMetrics
}

// NewConsumer builds the order notification consumer.
func NewConsumer(repo notificationWriter, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		registry:     registry.NewEventRegistry(),
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// UseMetrics records one job sample per handled message.
func (c *Consumer) UseMetrics(m *metrics.JobMetrics) {
	c.metrics = m
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		started := time.Now()
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			c.metrics.Observe(orderNotificationConsumer, started, nil)
			msg.Ack()
			return
		}
		c.metrics.Observe(orderNotificationConsumer, started, errNacked)
		msg.Nack()
	})
}

// process reports whether the message should be acked.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := enums.OutboxEventType(attrs["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": string(eventType),
	})

	resolved, err := c.registry.Decode(eventType, data)
	if err != nil {
		var nonRetryable registry.NonRetryableError
		if errors.As(err, &nonRetryable) {
			c.logg.Warn(logCtx, "dropping undecodable event: "+err.Error())
			return true
		}
		c.logg.Error(logCtx, "decode event", err)
		return false
	}

	eventID := resolved.Envelope.EventID
	logCtx = c.logg.WithField(logCtx, "event_id", eventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	notification, err := notificationFor(resolved.Payload)
	if err != nil {
		c.logg.Warn(logCtx, "event not handled: "+err.Error())
		return true
	}
	if notification == nil {
		return true
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "store notification", err)
		if releaseErr := c.idempotency.Release(ctx, orderNotificationConsumer, eventID); releaseErr != nil {
			c.logg.Error(logCtx, "release idempotency key", releaseErr)
		}
		return false
	}

	c.logg.Info(c.logg.WithUserID(logCtx, notification.UserID.String()), "order owner notified")
	return true
}

// notificationFor returns nil for events that do not notify anyone.
func notificationFor(payload any) (*models.Notification, error) {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return orderNotification(p.UserID, p.OrderID, enums.NotificationTypeOrder, "Your order was placed")
	case *payloads.OrderStatusChangedEvent:
		if p.To == enums.DeliveryStatusPending {
			return nil, nil
		}
		msg := "Your order is now " + strings.ReplaceAll(string(p.To), "_", " ")
		return orderNotification(p.UserID, p.OrderID, enums.NotificationTypeDelivery, msg)
	case *payloads.PaymentCompletedEvent:
		return orderNotification(p.UserID, p.OrderID, enums.NotificationTypePayment, "Payment received")
	default:
		return nil, fmt.Errorf("unexpected payload %T", payload)
	}
}

func orderNotification(userID, orderID uuid.UUID, kind enums.NotificationType, message string) (*models.Notification, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id missing")
	}
	link := fmt.Sprintf("/orders/%s", orderID)
	return &models.Notification{
		UserID:  userID,
		Type:    kind,
		Message: message,
		Link:    &link,
	}, nil
}
