package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/orders"
	"github.com/angelmondragon/mealbridge-backend/internal/payments"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/payloads"
	pkgstripe "github.com/angelmondragon/mealbridge-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Payments          payments.Repository
	Orders            orders.Repository
	TransactionRunner txRunner
	Outbox            outbox.Emitter
}

type Service struct {
	payments payments.Repository
	orders   orders.Repository
	txRunner txRunner
	outbox   outbox.Emitter
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	return &Service{
		payments: params.Payments,
		orders:   params.Orders,
		txRunner: params.TransactionRunner,
		outbox:   params.Outbox,
	}, nil
}

// HandleEvent applies a verified Stripe event. Unhandled event types are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, orderID, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.markSucceeded(ctx, intent, orderID)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, orderID, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.markFailed(ctx, intent.ID, orderID)
	default:
		return nil
	}
}

func (s *Service) markSucceeded(ctx context.Context, intent *stripe.PaymentIntent, orderID uuid.UUID) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		order, err := orderRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		intentID := intent.ID
		amount := decimal.New(intent.Amount, -2)
		currency := strings.ToLower(string(intent.Currency))
		if currency == "" {
			currency = "usd"
		}
		payment, err := s.payments.WithTx(tx).Upsert(ctx, &models.Payment{
			OrderID:               order.ID,
			Amount:                amount,
			Currency:              currency,
			Status:                enums.PaymentStatusCompleted,
			StripePaymentIntentID: &intentID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment")
		}

		if order.Status != enums.OrderStatusConfirmed {
			rows, err := orderRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm order")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCompleted,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentCompletedEvent{
				PaymentID:       payment.ID,
				OrderID:         order.ID,
				UserID:          order.UserID,
				PaymentIntentID: intentID,
				Amount:          amount,
			},
		})
	})
}

func (s *Service) markFailed(ctx context.Context, intentID string, orderID uuid.UUID) error {
	if _, err := s.payments.MarkFailed(ctx, orderID, intentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark payment failed")
	}
	return nil
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, uuid.UUID, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}
	raw := strings.TrimSpace(intent.Metadata[pkgstripe.MetadataOrderID])
	if raw == "" {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent missing order_id metadata")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent order_id is invalid")
	}
	return &intent, orderID, nil
}
