package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// Company is the tenant that employees belong to.
type Company struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primaryKey"`
	Name               string                   `gorm:"type:text;not null;uniqueIndex"`
	Address            string                   `gorm:"type:text;not null"`
	SubscriptionPlan   enums.SubscriptionPlan   `gorm:"column:subscription_plan;type:text;not null"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:text;not null"`
	SubscriptionStart  *time.Time               `gorm:"column:subscription_start"`
	SubscriptionEnd    *time.Time               `gorm:"column:subscription_end"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Company) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CompanyMealPackage links a meal package into a company's catalog.
type CompanyMealPackage struct {
	CompanyID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	MealPackageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
