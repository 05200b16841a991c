package meals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// MealPackageDTO is the API representation of a meal package.
type MealPackageDTO struct {
	ID              uuid.UUID             `json:"id"`
	Name            string                `json:"name"`
	Description     *string               `json:"description,omitempty"`
	ChefID          uuid.UUID             `json:"chefId"`
	Price           decimal.Decimal       `json:"price"`
	MealType        enums.MealType        `json:"mealType"`
	DietaryOptions  []string              `json:"dietaryOptions"`
	NutritionalInfo types.NutritionalInfo `json:"nutritionalInfo"`
	AvailableDays   []string              `json:"availableDays"`
	MaxOrdersPerDay int                   `json:"maxOrdersPerDay"`
	Active          bool                  `json:"active"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// CreateMealInput is the chef payload for POST /meals.
type CreateMealInput struct {
	Name            string                `json:"name" validate:"required,max=200"`
	Description     *string               `json:"description,omitempty"`
	Price           decimal.Decimal       `json:"price"`
	MealType        enums.MealType        `json:"mealType" validate:"required"`
	DietaryOptions  []string              `json:"dietaryOptions,omitempty"`
	NutritionalInfo types.NutritionalInfo `json:"nutritionalInfo"`
	AvailableDays   []string              `json:"availableDays,omitempty"`
	MaxOrdersPerDay int                   `json:"maxOrdersPerDay" validate:"gte=0"`
}

// UpdateMealInput is a partial update; nil fields are untouched.
type UpdateMealInput struct {
	Name            *string                `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string                `json:"description,omitempty"`
	Price           *decimal.Decimal       `json:"price,omitempty"`
	MealType        *enums.MealType        `json:"mealType,omitempty"`
	DietaryOptions  *[]string              `json:"dietaryOptions,omitempty"`
	NutritionalInfo *types.NutritionalInfo `json:"nutritionalInfo,omitempty"`
	AvailableDays   *[]string              `json:"availableDays,omitempty"`
	MaxOrdersPerDay *int                   `json:"maxOrdersPerDay,omitempty" validate:"omitempty,gte=0"`
	Active          *bool                  `json:"active,omitempty"`
}

// ListFilters are the public browse filters. Active defaults to true.
type ListFilters struct {
	MealType   *enums.MealType
	Dietary    string
	ChefID     *uuid.UUID
	Active     *bool
	Pagination pagination.Params
}

func FromModel(m *models.MealPackage) *MealPackageDTO {
	if m == nil {
		return nil
	}
	return &MealPackageDTO{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		ChefID:          m.ChefID,
		Price:           m.Price,
		MealType:        m.MealType,
		DietaryOptions:  append([]string{}, m.DietaryOptions...),
		NutritionalInfo: m.NutritionalInfo,
		AvailableDays:   append([]string{}, m.AvailableDays...),
		MaxOrdersPerDay: m.MaxOrdersPerDay,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func FromModels(list []models.MealPackage) []MealPackageDTO {
	out := make([]MealPackageDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
