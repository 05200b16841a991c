package companies

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// CompanyDTO is the API shape of a company.
type CompanyDTO struct {
	ID                 uuid.UUID                `json:"id"`
	Name               string                   `json:"name"`
	Address            string                   `json:"address"`
	SubscriptionPlan   enums.SubscriptionPlan   `json:"subscriptionPlan"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionStart  *time.Time               `json:"subscriptionStart,omitempty"`
	SubscriptionEnd    *time.Time               `json:"subscriptionEnd,omitempty"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

// CreateCompanyInput is the admin payload for POST /companies.
type CreateCompanyInput struct {
	Name             string                 `json:"name" validate:"required,max=200"`
	Address          string                 `json:"address" validate:"required"`
	SubscriptionPlan enums.SubscriptionPlan `json:"subscriptionPlan" validate:"required"`
}

// SubscriptionInput sets a company's plan window. No transition rules apply.
type SubscriptionInput struct {
	Plan      enums.SubscriptionPlan   `json:"plan" validate:"required"`
	Status    enums.SubscriptionStatus `json:"status" validate:"required"`
	StartDate *time.Time               `json:"startDate,omitempty"`
	EndDate   *time.Time               `json:"endDate,omitempty"`
}

// AddMealPackageInput links a meal package to a company.
type AddMealPackageInput struct {
	MealPackageID uuid.UUID `json:"mealPackageId" validate:"required"`
}

func FromModel(c *models.Company) *CompanyDTO {
	if c == nil {
		return nil
	}
	return &CompanyDTO{
		ID:                 c.ID,
		Name:               c.Name,
		Address:            c.Address,
		SubscriptionPlan:   c.SubscriptionPlan,
		SubscriptionStatus: c.SubscriptionStatus,
		SubscriptionStart:  c.SubscriptionStart,
		SubscriptionEnd:    c.SubscriptionEnd,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
