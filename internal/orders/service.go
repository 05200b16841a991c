package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox"
	"github.com/angelmondragon/mealbridge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type mealLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MealPackage, error)
}

// Service defines order placement and lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	UpdateDeliveryStatus(ctx context.Context, input StatusUpdateInput) (*OrderDTO, error)
	Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListForChef(ctx context.Context, chefID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo   Repository
	Users  userLoader
	Meals  mealLoader
	Tx     txRunner
	Outbox outbox.Emitter
	Now    func() time.Time
}

type service struct {
	repo   Repository
	users  userLoader
	meals  mealLoader
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Meals == nil {
		return nil, fmt.Errorf("meals repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		meals:  params.Meals,
		tx:     params.Tx,
		outbox: params.Outbox,
		now:    now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	if input.MealPackageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mealPackageId is required")
	}
	if input.ScheduledFor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduledFor is required")
	}
	scheduledFor := input.ScheduledFor.UTC()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	meal, err := s.meals.FindByID(ctx, input.MealPackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal package")
	}
	if !meal.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "meal package is not active")
	}
	if !meal.AvailableOn(scheduledFor) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "meal package is not offered on %s", enums.WeekdayOf(scheduledFor))
	}

	order := &models.Order{
		UserID:           user.ID,
		CompanyID:        user.CompanyID,
		MealPackageID:    meal.ID,
		ScheduledFor:     scheduledFor,
		DeliveryStatus:   enums.DeliveryStatusPending,
		Status:           enums.OrderStatusPending,
		PriceMeal:        meal.Price,
		PriceDeliveryFee: DeliveryFee,
		PriceTotal:       meal.Price.Add(DeliveryFee),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if meal.MaxOrdersPerDay > 0 {
			if err := repo.LockMealPackage(ctx, meal.ID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "meal package not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock meal package")
			}
			count, err := repo.CountActiveForMealOnDay(ctx, meal.ID, scheduledFor)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
			}
			if count >= int64(meal.MaxOrdersPerDay) {
				return pkgerrors.New(pkgerrors.CodeConflict, "meal package is sold out for that day")
			}
		}

		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: user.Role},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				CompanyID:     order.CompanyID,
				MealPackageID: order.MealPackageID,
				ScheduledFor:  order.ScheduledFor,
				Total:         order.PriceTotal,
			},
		})
	})
	if err != nil {
		return nil, asInternal(err, "checkout")
	}

	order.MealPackage = meal
	return FromModel(order), nil
}

func (s *service) UpdateDeliveryStatus(ctx context.Context, input StatusUpdateInput) (*OrderDTO, error) {
	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	switch input.ActorRole {
	case enums.UserRoleAdmin, enums.UserRoleDeliveryPerson:
	case enums.UserRoleHomeChef:
		if order.MealPackage == nil || order.MealPackage.ChefID != input.ActorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another chef")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not update delivery status")
	}

	next, err := enums.ParseDeliveryStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status")
	}
	if input.ActorRole == enums.UserRoleDeliveryPerson &&
		next != enums.DeliveryStatusOutForDelivery && next != enums.DeliveryStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery staff may only set out_for_delivery or delivered")
	}

	from := order.DeliveryStatus
	if err := enums.CanTransitionDelivery(from, next, input.ActorRole); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, err.Error()).
			WithDetails(map[string]any{"from": from, "to": next})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).UpdateDeliveryStatus(ctx, order.ID, from, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update delivery status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
				From:    from,
				To:      next,
			},
		})
	})
	if err != nil {
		return nil, asInternal(err, "update delivery status")
	}

	order.DeliveryStatus = next
	order.UpdatedAt = s.now().UTC()
	return FromModel(order), nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanView(order, actorID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}
	return FromModel(order), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, listError(err)
	}
	return buildPage(rows, params.Limit), nil
}

func (s *service) ListForChef(ctx context.Context, chefID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	rows, err := s.repo.ListByChef(ctx, chefID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, listError(err)
	}
	return buildPage(rows, params.Limit), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// CanView reports whether the actor may read the order: the owner, the meal's chef,
// delivery staff and admins.
func CanView(order *models.Order, actorID uuid.UUID, role enums.UserRole) bool {
	switch role {
	case enums.UserRoleAdmin, enums.UserRoleDeliveryPerson:
		return true
	case enums.UserRoleHomeChef:
		return order.MealPackage != nil && order.MealPackage.ChefID == actorID
	default:
		return order.UserID == actorID
	}
}

func buildPage(rows []models.Order, limit int) pagination.Page[OrderDTO] {
	return pagination.BuildPage(FromModels(rows), limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
}

func listError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
}

func asInternal(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
