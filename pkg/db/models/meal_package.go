package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/mealbridge-backend/pkg/db/types"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// MealPackage is a chef-authored, priced offering.
type MealPackage struct {
	ID              uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Name            string                `gorm:"type:text;not null"`
	Description     *string               `gorm:"type:text"`
	ChefID          uuid.UUID             `gorm:"type:uuid;column:chef_id;not null;index"`
	Price           decimal.Decimal       `gorm:"type:numeric(10,2);not null"`
	MealType        enums.MealType        `gorm:"column:meal_type;type:text;not null"`
	DietaryOptions  dbtypes.StringArray   `gorm:"column:dietary_options;type:text[];not null"`
	NutritionalInfo types.NutritionalInfo `gorm:"column:nutritional_info;type:jsonb;not null"`
	AvailableDays   dbtypes.StringArray   `gorm:"column:available_days;type:text[];not null"`
	MaxOrdersPerDay int                   `gorm:"column:max_orders_per_day;not null;default:0"`
	Active          bool                  `gorm:"column:active;not null;default:true"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MealPackage) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// AvailableOn reports whether the package is offered on the weekday of t.
// An empty window means every day.
func (m MealPackage) AvailableOn(t time.Time) bool {
	if len(m.AvailableDays) == 0 {
		return true
	}
	return m.AvailableDays.Contains(string(enums.WeekdayOf(t)))
}
