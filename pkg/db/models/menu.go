package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/mealbridge-backend/pkg/db/types"
)

// Menu groups a chef's meal packages for a given day.
type Menu struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ChefID         uuid.UUID         `gorm:"type:uuid;column:chef_id;not null;index"`
	Name           string            `gorm:"type:text;not null"`
	MenuDate       time.Time         `gorm:"column:menu_date;type:date;not null"`
	MealPackageIDs dbtypes.UUIDArray `gorm:"column:meal_package_ids;type:uuid[];not null"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (m *Menu) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
