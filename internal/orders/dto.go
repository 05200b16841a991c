package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// DeliveryFee is the flat fee added to every order.
var DeliveryFee = decimal.NewFromInt(5)

// PriceBreakdown itemizes what the customer pays.
type PriceBreakdown struct {
	Meal        decimal.Decimal `json:"meal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// MealSummary is the slice of the meal package embedded in order responses.
type MealSummary struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	ChefID   uuid.UUID      `json:"chefId"`
	MealType enums.MealType `json:"mealType"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID                uuid.UUID             `json:"id"`
	UserID            uuid.UUID             `json:"userId"`
	CompanyID         *uuid.UUID            `json:"companyId,omitempty"`
	MealPackageID     uuid.UUID             `json:"mealPackageId"`
	MealPackage       *MealSummary          `json:"mealPackage,omitempty"`
	ScheduledFor      time.Time             `json:"scheduledFor"`
	DeliveryStatus    enums.DeliveryStatus  `json:"deliveryStatus"`
	Status            enums.OrderStatus     `json:"status"`
	Price             PriceBreakdown        `json:"price"`
	Location          *types.GeographyPoint `json:"location,omitempty"`
	LocationUpdatedAt *time.Time            `json:"locationUpdatedAt,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// CheckoutInput is the employee payload for POST /orders.
type CheckoutInput struct {
	MealPackageID uuid.UUID `json:"mealPackageId" validate:"required"`
	ScheduledFor  time.Time `json:"scheduledFor" validate:"required"`
}

// StatusUpdateInput is the body of PATCH /orders/:id/status plus the caller identity.
type StatusUpdateInput struct {
	OrderID   uuid.UUID
	Status    string
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:             o.ID,
		UserID:         o.UserID,
		CompanyID:      o.CompanyID,
		MealPackageID:  o.MealPackageID,
		ScheduledFor:   o.ScheduledFor,
		DeliveryStatus: o.DeliveryStatus,
		Status:         o.Status,
		Price: PriceBreakdown{
			Meal:        o.PriceMeal,
			DeliveryFee: o.PriceDeliveryFee,
			Total:       o.PriceTotal,
		},
		Location:          o.Location,
		LocationUpdatedAt: o.LocationUpdatedAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.MealPackage != nil {
		dto.MealPackage = &MealSummary{
			ID:       o.MealPackage.ID,
			Name:     o.MealPackage.Name,
			ChefID:   o.MealPackage.ChefID,
			MealType: o.MealPackage.MealType,
		}
	}
	return dto
}

func FromModels(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
