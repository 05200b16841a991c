// Package payments creates processor payment intents for orders.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/mealbridge-backend/pkg/stripe"
)

var minorUnits = decimal.NewFromInt(100)

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// IntentDTO is handed to the client to confirm the payment.
type IntentDTO struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// Service creates payment intents.
type Service interface {
	CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*IntentDTO, error)
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Repo     Repository
	Orders   orderLoader
	Stripe   pkgstripe.PaymentIntentCreator
	Currency string
}

type service struct {
	repo     Repository
	orders   orderLoader
	stripe   pkgstripe.PaymentIntentCreator
	currency string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe intent creator required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &service{repo: params.Repo, orders: params.Orders, stripe: params.Stripe, currency: currency}, nil
}

func (s *service) CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*IntentDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	existing, err := s.repo.FindByOrderID(ctx, order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if existing != nil && existing.Status == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	}

	amount := order.PriceTotal.Mul(minorUnits).Round(0).IntPart()
	intent, err := s.stripe.CreatePaymentIntent(ctx, pkgstripe.IntentRequest{
		AmountMinor: amount,
		Currency:    s.currency,
		OrderID:     order.ID.String(),
		UserID:      userID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}

	intentID := intent.ID
	if _, err := s.repo.Upsert(ctx, &models.Payment{
		OrderID:               order.ID,
		Amount:                order.PriceTotal,
		Currency:              s.currency,
		Status:                enums.PaymentStatusPending,
		StripePaymentIntentID: &intentID,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment")
	}

	return &IntentDTO{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}
