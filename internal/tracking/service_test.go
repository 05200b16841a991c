package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/notifications/push"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

type stubOrders struct {
	order   *models.Order
	updates []types.GeographyPoint
}

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrders) UpdateLocation(_ context.Context, id uuid.UUID, point types.GeographyPoint, at time.Time) (int64, error) {
	if s.order == nil || s.order.ID != id {
		return 0, nil
	}
	s.updates = append(s.updates, point)
	s.order.Location = &point
	s.order.LocationUpdatedAt = &at
	return 1, nil
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubPublisher struct {
	published []LocationUpdate
	receivers int64
	err       error
}

func (s *stubPublisher) Publish(_ context.Context, update LocationUpdate) (int64, error) {
	s.published = append(s.published, update)
	return s.receivers, s.err
}

type stubTrail struct {
	appended  []Breadcrumb
	recent    []Breadcrumb
	appendErr error
}

func (s *stubTrail) Append(_ context.Context, crumb Breadcrumb) error {
	s.appended = append(s.appended, crumb)
	return s.appendErr
}

func (s *stubTrail) Recent(context.Context, uuid.UUID, int) ([]Breadcrumb, error) {
	return s.recent, nil
}

type stubSender struct {
	mu     sync.Mutex
	calls  []push.Message
	result push.Result
}

func (s *stubSender) Send(_ context.Context, _ types.JSONObject, msg push.Message) push.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, msg)
	return s.result
}

type trackingFixture struct {
	owner     *models.User
	chefID    uuid.UUID
	order     *models.Order
	orders    *stubOrders
	publisher *stubPublisher
	trail     *stubTrail
	sender    *stubSender
	registry  *prometheus.Registry
	svc       Service
}

func newTrackingFixture(t *testing.T, subscribed bool) *trackingFixture {
	t.Helper()
	f := &trackingFixture{
		owner:     &models.User{ID: uuid.New(), Role: enums.UserRoleCorporateEmployee},
		chefID:    uuid.New(),
		publisher: &stubPublisher{receivers: 1},
		trail:     &stubTrail{},
		sender:    &stubSender{result: push.Sent(201)},
		registry:  prometheus.NewRegistry(),
	}
	if subscribed {
		f.owner.PushSubscription = types.JSONObject(`{"endpoint":"https://push.example/abc"}`)
	}
	f.order = &models.Order{
		ID:             uuid.New(),
		UserID:         f.owner.ID,
		DeliveryStatus: enums.DeliveryStatusOutForDelivery,
		Status:         enums.OrderStatusConfirmed,
		MealPackage:    &models.MealPackage{ChefID: f.chefID},
	}
	f.orders = &stubOrders{order: f.order}

	svc, err := NewService(ServiceParams{
		Orders:  f.orders,
		Users:   stubUsers{users: map[uuid.UUID]*models.User{f.owner.ID: f.owner}},
		Broker:  f.publisher,
		Trail:   f.trail,
		Push:    f.sender,
		Metrics: metrics.NewDomainMetrics(f.registry),
		Now:     func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) },
		Async:   func(fn func()) { fn() },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m.GetLabel(), "result", result) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, l := range labels {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}

func TestUpdateLocationPublishesOncePerUpdate(t *testing.T) {
	f := newTrackingFixture(t, true)
	courier := uuid.New()
	point := types.GeographyPoint{Lat: 40.7128, Lng: -74.006}

	got, err := f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, CourierID: courier, Location: point})
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, got.OrderID)
	assert.Equal(t, point, got.Location)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, f.order.ID, f.publisher.published[0].OrderID)
	assert.Equal(t, point, f.publisher.published[0].Location)

	require.Len(t, f.orders.updates, 1)
	require.Len(t, f.trail.appended, 1)
	assert.Equal(t, courier, f.trail.appended[0].CourierID)

	require.Len(t, f.sender.calls, 1)
	assert.Equal(t, "Delivery update", f.sender.calls[0].Title)
	assert.Equal(t, f.order.ID.String(), f.sender.calls[0].Data["orderId"])

	assert.Equal(t, float64(1), counterValue(t, f.registry, "mealbridge_push_dispatch_total", "sent"))
	assert.Equal(t, float64(1), counterValue(t, f.registry, "mealbridge_tracking_publish_total", "delivered"))
}

func TestUpdateLocationWithoutSubscriptionSkipsPush(t *testing.T) {
	f := newTrackingFixture(t, false)

	_, err := f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, Location: types.GeographyPoint{Lat: 1, Lng: 2}})
	require.NoError(t, err)

	assert.Empty(t, f.sender.calls)
	assert.Equal(t, float64(1), counterValue(t, f.registry, "mealbridge_push_dispatch_total", "skipped"))
}

func TestUpdateLocationSideEffectFailuresDoNotFailRequest(t *testing.T) {
	f := newTrackingFixture(t, true)
	f.publisher.err = errors.New("redis down")
	f.trail.appendErr = errors.New("mongo down")
	f.sender.result = push.Failed(errors.New("gone"))

	_, err := f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, Location: types.GeographyPoint{Lat: 1, Lng: 2}})
	require.NoError(t, err)

	assert.Equal(t, float64(1), counterValue(t, f.registry, "mealbridge_tracking_publish_total", "failed"))
	assert.Equal(t, float64(1), counterValue(t, f.registry, "mealbridge_push_dispatch_total", "failed"))
}

func TestUpdateLocationRejections(t *testing.T) {
	f := newTrackingFixture(t, true)

	_, err := f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, Location: types.GeographyPoint{Lat: 91, Lng: 0}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, Location: types.GeographyPoint{Lat: 0, Lng: -181}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: uuid.New(), Location: types.GeographyPoint{Lat: 0, Lng: 0}})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.sender.calls)
}

func TestStatusIncludesTrailAndChecksAccess(t *testing.T) {
	f := newTrackingFixture(t, false)
	f.trail.recent = []Breadcrumb{{OrderID: f.order.ID, Location: types.GeographyPoint{Lat: 3, Lng: 4}}}
	_, err := f.svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, Location: types.GeographyPoint{Lat: 3, Lng: 4}})
	require.NoError(t, err)

	status, err := f.svc.Status(context.Background(), f.owner.ID, enums.UserRoleCorporateEmployee, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusOutForDelivery, status.DeliveryStatus)
	require.NotNil(t, status.Location)
	assert.Equal(t, 3.0, status.Location.Lat)
	assert.Len(t, status.Trail, 1)

	_, err = f.svc.Status(context.Background(), f.chefID, enums.UserRoleHomeChef, f.order.ID)
	require.NoError(t, err)

	_, err = f.svc.Status(context.Background(), uuid.New(), enums.UserRoleCorporateEmployee, f.order.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(
		f.svc.Authorize(context.Background(), uuid.New(), enums.UserRoleHomeChef, f.order.ID)))
	assert.NoError(t, f.svc.Authorize(context.Background(), uuid.New(), enums.UserRoleDeliveryPerson, f.order.ID))
}

func TestStatusWithoutTrailStore(t *testing.T) {
	f := newTrackingFixture(t, false)
	svc, err := NewService(ServiceParams{
		Orders: f.orders,
		Users:  stubUsers{},
		Broker: f.publisher,
	})
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), uuid.New(), enums.UserRoleAdmin, f.order.ID)
	require.NoError(t, err)
	assert.NotNil(t, status.Trail)
	assert.Empty(t, status.Trail)
}

func TestDisabledMongoTrailIsSkipped(t *testing.T) {
	f := newTrackingFixture(t, false)
	svc, err := NewService(ServiceParams{
		Orders: f.orders,
		Users:  stubUsers{users: map[uuid.UUID]*models.User{f.owner.ID: f.owner}},
		Broker: f.publisher,
		Trail:  NewMongoTrail(nil),
		Async:  func(fn func()) { fn() },
	})
	require.NoError(t, err)

	point := types.GeographyPoint{Lat: 40.7128, Lng: -74.006}
	_, err = svc.UpdateLocation(context.Background(), LocationInput{OrderID: f.order.ID, CourierID: uuid.New(), Location: point})
	require.NoError(t, err)
	require.Len(t, f.publisher.published, 1)

	status, err := svc.Status(context.Background(), uuid.New(), enums.UserRoleAdmin, f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, status.Trail)
}
