// Package tracking records courier positions and fans them out to subscribers of an order.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/notifications/push"
	"github.com/angelmondragon/mealbridge-backend/internal/orders"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

const (
	defaultTrailLimit  = 20
	defaultPushTimeout = 10 * time.Second
)

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, point types.GeographyPoint, at time.Time) (int64, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type locationPublisher interface {
	Publish(ctx context.Context, update LocationUpdate) (int64, error)
}

// LocationInput is a courier position report.
type LocationInput struct {
	OrderID   uuid.UUID
	CourierID uuid.UUID
	Location  types.GeographyPoint
}

// LocationDTO echoes the accepted position.
type LocationDTO struct {
	OrderID  uuid.UUID            `json:"orderId"`
	Location types.GeographyPoint `json:"location"`
}

// StatusDTO is the polling view of a delivery.
type StatusDTO struct {
	OrderID           uuid.UUID             `json:"orderId"`
	DeliveryStatus    enums.DeliveryStatus  `json:"deliveryStatus"`
	Status            enums.OrderStatus     `json:"status"`
	Location          *types.GeographyPoint `json:"location"`
	LocationUpdatedAt *time.Time            `json:"locationUpdatedAt"`
	Trail             []Breadcrumb          `json:"trail"`
}

// Service handles delivery location updates and reads.
type Service interface {
	UpdateLocation(ctx context.Context, input LocationInput) (*LocationDTO, error)
	Status(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*StatusDTO, error)
	Authorize(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) error
}

// ServiceParams bundles the tracking dependencies. Trail and Push may be nil.
type ServiceParams struct {
	Orders      orderStore
	Users       userLoader
	Broker      locationPublisher
	Trail       TrailStore
	Push        push.Sender
	Metrics     *metrics.DomainMetrics
	Logger      *logger.Logger
	TrailLimit  int
	PushTimeout time.Duration
	Now         func() time.Time
	// Async runs the push dispatch; defaults to a new goroutine.
	Async func(func())
}

type service struct {
	orders      orderStore
	users       userLoader
	broker      locationPublisher
	trail       TrailStore
	push        push.Sender
	metrics     *metrics.DomainMetrics
	logg        *logger.Logger
	trailLimit  int
	pushTimeout time.Duration
	now         func() time.Time
	async       func(func())
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Broker == nil {
		return nil, fmt.Errorf("tracking broker required")
	}
	svc := &service{
		orders:      params.Orders,
		users:       params.Users,
		broker:      params.Broker,
		trail:       params.Trail,
		push:        params.Push,
		metrics:     params.Metrics,
		logg:        params.Logger,
		trailLimit:  params.TrailLimit,
		pushTimeout: params.PushTimeout,
		now:         params.Now,
		async:       params.Async,
	}
	if svc.trailLimit <= 0 {
		svc.trailLimit = defaultTrailLimit
	}
	if svc.pushTimeout <= 0 {
		svc.pushTimeout = defaultPushTimeout
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.async == nil {
		svc.async = func(fn func()) { go fn() }
	}
	return svc, nil
}

func (s *service) UpdateLocation(ctx context.Context, input LocationInput) (*LocationDTO, error) {
	if err := input.Location.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	rows, err := s.orders.UpdateLocation(ctx, order.ID, input.Location, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order location")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if s.trail != nil {
		crumb := Breadcrumb{OrderID: order.ID, CourierID: input.CourierID, Location: input.Location, RecordedAt: at}
		if err := s.trail.Append(ctx, crumb); err != nil {
			s.logError(ctx, "append delivery breadcrumb", err)
		}
	}

	s.publish(ctx, LocationUpdate{OrderID: order.ID, Location: input.Location})
	s.dispatchPush(ctx, order)

	return &LocationDTO{OrderID: order.ID, Location: input.Location}, nil
}

func (s *service) publish(ctx context.Context, update LocationUpdate) {
	receivers, err := s.broker.Publish(ctx, update)
	switch {
	case err != nil:
		s.metrics.IncTrackingPublish("failed")
		s.logError(ctx, "publish location update", err)
	case receivers == 0:
		s.metrics.IncTrackingPublish("no_subscribers")
	default:
		s.metrics.IncTrackingPublish("delivered")
	}
}

// dispatchPush notifies the order owner without holding up the request.
func (s *service) dispatchPush(ctx context.Context, order *models.Order) {
	if s.push == nil {
		return
	}
	pushCtx := context.WithoutCancel(ctx)
	s.async(func() {
		ctx, cancel := context.WithTimeout(pushCtx, s.pushTimeout)
		defer cancel()

		result := s.notifyOwner(ctx, order)
		s.metrics.IncPushDispatch(string(result.Outcome))
		if s.logg == nil {
			return
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"push_outcome": string(result.Outcome),
		})
		if result.Outcome == push.OutcomeFailed {
			s.logg.Warn(s.logg.WithField(logCtx, "error", fmt.Sprint(result.Err)), "delivery push failed")
			return
		}
		s.logg.Debug(logCtx, "delivery push dispatched")
	})
}

func (s *service) notifyOwner(ctx context.Context, order *models.Order) push.Result {
	owner, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return push.Failed(fmt.Errorf("load order owner: %w", err))
	}
	if owner.PushSubscription.IsEmpty() {
		return push.Skipped()
	}
	return s.push.Send(ctx, owner.PushSubscription, push.Message{
		Title: "Delivery update",
		Body:  "Your order is on the way",
		Data:  map[string]any{"orderId": order.ID.String()},
	})
}

func (s *service) Status(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*StatusDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !orders.CanView(order, actorID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}

	trail := []Breadcrumb{}
	if s.trail != nil {
		recent, err := s.trail.Recent(ctx, order.ID, s.trailLimit)
		if err != nil {
			s.logError(ctx, "load delivery trail", err)
		} else {
			trail = recent
		}
	}

	return &StatusDTO{
		OrderID:           order.ID,
		DeliveryStatus:    order.DeliveryStatus,
		Status:            order.Status,
		Location:          order.Location,
		LocationUpdatedAt: order.LocationUpdatedAt,
		Trail:             trail,
	}, nil
}

// Authorize gates websocket joins with the same rule as the status read.
func (s *service) Authorize(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if !orders.CanView(order, actorID, role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}
