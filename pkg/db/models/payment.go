package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// Payment is the billing record tied 1:1 to an order.
type Payment struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrderID               uuid.UUID           `gorm:"type:uuid;column:order_id;not null;uniqueIndex"`
	Amount                decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	Currency              string              `gorm:"type:text;not null"`
	Status                enums.PaymentStatus `gorm:"type:text;not null"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id;uniqueIndex"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
