package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/internal/orders"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
)

type stubOrdersService struct {
	order     *orders.OrderDTO
	err       error
	checkout  []orders.CheckoutInput
	updates   []orders.StatusUpdateInput
	listedFor uuid.UUID
	params    pagination.Params
}

func (s *stubOrdersService) Checkout(ctx context.Context, userID uuid.UUID, input orders.CheckoutInput) (*orders.OrderDTO, error) {
	s.checkout = append(s.checkout, input)
	return s.order, s.err
}

func (s *stubOrdersService) UpdateDeliveryStatus(ctx context.Context, input orders.StatusUpdateInput) (*orders.OrderDTO, error) {
	s.updates = append(s.updates, input)
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	s.listedFor = userID
	s.params = params
	return pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{*s.order}}, s.err
}

func (s *stubOrdersService) ListForChef(ctx context.Context, chefID uuid.UUID, params pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	s.listedFor = chefID
	s.params = params
	return pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{}}, s.err
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: orderID}}
	mealID := uuid.New()
	when := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	req := asActor(newRequest(t, http.MethodPost, "/orders", map[string]any{
		"mealPackageId": mealID, "scheduledFor": when,
	}), uuid.New(), enums.UserRoleCorporateEmployee)
	rec, env := serve(CreateOrder(svc, nil), req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), orderID.String())
	require.Len(t, svc.checkout, 1)
	assert.Equal(t, mealID, svc.checkout[0].MealPackageID)
	assert.True(t, when.Equal(svc.checkout[0].ScheduledFor))
}

func TestCreateOrderValidatesBody(t *testing.T) {
	svc := &stubOrdersService{order: &orders.OrderDTO{}}
	req := asActor(newRequest(t, http.MethodPost, "/orders", map[string]any{"scheduledFor": time.Now()}), uuid.New(), enums.UserRoleCorporateEmployee)
	rec, env := serve(CreateOrder(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
	assert.Empty(t, svc.checkout)
}

func TestCreateOrderSurfacesCapacityConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeConflict, "meal package is sold out for that day")}
	req := asActor(newRequest(t, http.MethodPost, "/orders", map[string]any{
		"mealPackageId": uuid.New(), "scheduledFor": time.Now(),
	}), uuid.New(), enums.UserRoleCorporateEmployee)
	rec, env := serve(CreateOrder(svc, nil), req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "meal package is sold out for that day", env.Error.Message)
}

func TestUpdateOrderStatusPassesActor(t *testing.T) {
	orderID := uuid.New()
	chefID := uuid.New()
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: orderID, DeliveryStatus: enums.DeliveryStatusPreparing}}

	req := newRequest(t, http.MethodPatch, "/orders/"+orderID.String()+"/status", map[string]string{"status": "preparing"})
	req = withURLParam(asActor(req, chefID, enums.UserRoleHomeChef), "id", orderID.String())
	rec, _ := serve(UpdateOrderStatus(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.updates, 1)
	assert.Equal(t, orders.StatusUpdateInput{
		OrderID:   orderID,
		Status:    "preparing",
		ActorID:   chefID,
		ActorRole: enums.UserRoleHomeChef,
	}, svc.updates[0])
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"forbidden":  {pkgerrors.New(pkgerrors.CodeForbidden, "not your meal"), http.StatusForbidden},
		"illegal":    {pkgerrors.New(pkgerrors.CodeStateConflict, "illegal transition"), http.StatusConflict},
		"missing":    {pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), http.StatusNotFound},
		"persisting": {pkgerrors.Wrap(pkgerrors.CodeInternal, assert.AnError, "update"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubOrdersService{err: tc.err}
			id := uuid.New()
			req := newRequest(t, http.MethodPatch, "/", map[string]string{"status": "delivered"})
			req = withURLParam(asActor(req, uuid.New(), enums.UserRoleHomeChef), "id", id.String())
			rec, _ := serve(UpdateOrderStatus(svc, nil), req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	svc := &stubOrdersService{}
	req := withURLParam(asActor(newRequest(t, http.MethodPatch, "/", map[string]string{"status": "x"}), uuid.New(), enums.UserRoleAdmin), "id", "bogus")
	rec, _ := serve(UpdateOrderStatus(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.updates)
}

func TestListMyOrdersParsesPagination(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: uuid.New()}}
	req := asActor(newRequest(t, http.MethodGet, "/orders/my-orders?limit=5", nil), userID, enums.UserRoleCorporateEmployee)
	rec, _ := serve(ListMyOrders(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, svc.listedFor)
	assert.Equal(t, 5, svc.params.Limit)

	req = asActor(newRequest(t, http.MethodGet, "/orders/my-orders?limit=0", nil), userID, enums.UserRoleCorporateEmployee)
	rec, _ = serve(ListMyOrders(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListChefOrdersUsesCaller(t *testing.T) {
	chefID := uuid.New()
	svc := &stubOrdersService{}
	req := asActor(newRequest(t, http.MethodGet, "/orders/chef", nil), chefID, enums.UserRoleHomeChef)
	rec, _ := serve(ListChefOrders(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, chefID, svc.listedFor)
}
