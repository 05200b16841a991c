package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// User represents the canonical identity entity.
type User struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name             string           `gorm:"type:text;not null"`
	Email            string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash     string           `gorm:"column:password_hash;not null"`
	Role             enums.UserRole   `gorm:"type:text;not null"`
	CompanyID        *uuid.UUID       `gorm:"type:uuid;column:company_id"`
	Specialty        *string          `gorm:"type:text"`
	PushSubscription types.JSONObject `gorm:"type:jsonb;column:push_subscription"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
