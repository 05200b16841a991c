package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        uuid.UUID       `json:"userId"`
	CompanyID     *uuid.UUID      `json:"companyId,omitempty"`
	MealPackageID uuid.UUID       `json:"mealPackageId"`
	ScheduledFor  time.Time       `json:"scheduledFor"`
	Total         decimal.Decimal `json:"total"`
}

// OrderStatusChangedEvent records an accepted delivery status transition.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID            `json:"orderId"`
	UserID  uuid.UUID            `json:"userId"`
	From    enums.DeliveryStatus `json:"from"`
	To      enums.DeliveryStatus `json:"to"`
}

// PaymentCompletedEvent is emitted when the processor confirms a payment.
type PaymentCompletedEvent struct {
	PaymentID       uuid.UUID       `json:"paymentId"`
	OrderID         uuid.UUID       `json:"orderId"`
	UserID          uuid.UUID       `json:"userId"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
}
