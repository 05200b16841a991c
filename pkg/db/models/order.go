package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// Order is a placed meal request.
type Order struct {
	ID                uuid.UUID             `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID             `gorm:"type:uuid;column:user_id;not null;index"`
	CompanyID         *uuid.UUID            `gorm:"type:uuid;column:company_id"`
	MealPackageID     uuid.UUID             `gorm:"type:uuid;column:meal_package_id;not null;index"`
	ScheduledFor      time.Time             `gorm:"column:scheduled_for;not null"`
	DeliveryStatus    enums.DeliveryStatus  `gorm:"column:delivery_status;type:text;not null"`
	Status            enums.OrderStatus     `gorm:"column:status;type:text;not null"`
	PriceMeal         decimal.Decimal       `gorm:"column:price_meal;type:numeric(10,2);not null"`
	PriceDeliveryFee  decimal.Decimal       `gorm:"column:price_delivery_fee;type:numeric(10,2);not null"`
	PriceTotal        decimal.Decimal       `gorm:"column:price_total;type:numeric(10,2);not null"`
	Location          *types.GeographyPoint `gorm:"column:location;type:geography(Point,4326)"`
	LocationUpdatedAt *time.Time            `gorm:"column:location_updated_at"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	MealPackage *MealPackage `gorm:"foreignKey:MealPackageID;references:ID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
