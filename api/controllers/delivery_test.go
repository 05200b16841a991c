package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/internal/tracking"
	pkgAuth "github.com/angelmondragon/mealbridge-backend/pkg/auth"
	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

type stubTrackingService struct {
	inputs []tracking.LocationInput
	status *tracking.StatusDTO
	err    error
}

func (s *stubTrackingService) UpdateLocation(ctx context.Context, input tracking.LocationInput) (*tracking.LocationDTO, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return &tracking.LocationDTO{OrderID: input.OrderID, Location: input.Location}, nil
}

func (s *stubTrackingService) Status(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*tracking.StatusDTO, error) {
	return s.status, s.err
}

func (s *stubTrackingService) Authorize(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) error {
	return s.err
}

func TestUpdateDeliveryLocation(t *testing.T) {
	svc := &stubTrackingService{}
	orderID := uuid.New()
	courierID := uuid.New()

	req := newRequest(t, http.MethodPost, "/delivery/location/"+orderID.String(), map[string]float64{"lat": 40.7, "lng": -74})
	req = withURLParam(asActor(req, courierID, enums.UserRoleDeliveryPerson), "orderId", orderID.String())
	rec, env := serve(UpdateDeliveryLocation(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.inputs, 1)
	assert.Equal(t, courierID, svc.inputs[0].CourierID)
	assert.Equal(t, types.GeographyPoint{Lat: 40.7, Lng: -74}, svc.inputs[0].Location)
	assert.JSONEq(t, `{"orderId":"`+orderID.String()+`","location":{"lat":40.7,"lng":-74}}`, string(env.Data))
}

func TestUpdateDeliveryLocationRequiresBothCoordinates(t *testing.T) {
	svc := &stubTrackingService{}
	orderID := uuid.New()
	req := newRequest(t, http.MethodPost, "/", map[string]float64{"lat": 0})
	req = withURLParam(asActor(req, uuid.New(), enums.UserRoleDeliveryPerson), "orderId", orderID.String())
	rec, _ := serve(UpdateDeliveryLocation(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.inputs)
}

func TestUpdateDeliveryLocationServiceErrors(t *testing.T) {
	svc := &stubTrackingService{err: pkgerrors.New(pkgerrors.CodeValidation, "lat out of range")}
	req := newRequest(t, http.MethodPost, "/", map[string]float64{"lat": 91, "lng": 0})
	req = withURLParam(asActor(req, uuid.New(), enums.UserRoleDeliveryPerson), "orderId", uuid.NewString())
	rec, env := serve(UpdateDeliveryLocation(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "lat out of range", env.Error.Message)
}

func TestDeliveryStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubTrackingService{status: &tracking.StatusDTO{
		OrderID:        orderID,
		DeliveryStatus: enums.DeliveryStatusOutForDelivery,
		Trail:          []tracking.Breadcrumb{},
	}}
	req := withURLParam(asActor(newRequest(t, http.MethodGet, "/", nil), uuid.New(), enums.UserRoleCorporateEmployee), "orderId", orderID.String())
	rec, env := serve(DeliveryStatus(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"deliveryStatus":"out_for_delivery"`)
	assert.Contains(t, string(env.Data), `"trail":[]`)
}

type nopSubscriber struct{}

func (nopSubscriber) Subscribe(ctx context.Context, orderID uuid.UUID) (tracking.Subscription, error) {
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "broker offline")
}

func TestTrackingSocketAuthenticatesQueryToken(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "mealbridge", ExpirationMinutes: 5}
	hub, err := tracking.NewHub(tracking.HubParams{
		Broker: nopSubscriber{},
		Access: &stubTrackingService{},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(TrackingSocket(hub, jwtCfg, nil))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCorporateEmployee})
	require.NoError(t, err)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.NoError(t, conn.Close())
}

func TestTrackingSocketWithoutHub(t *testing.T) {
	rec, _ := serve(TrackingSocket(nil, config.JWTConfig{}, nil), newRequest(t, http.MethodGet, "/ws/tracking", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
