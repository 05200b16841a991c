package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/mealbridge-backend/api/middleware"
	"github.com/angelmondragon/mealbridge-backend/api/responses"
	"github.com/angelmondragon/mealbridge-backend/api/validators"
	"github.com/angelmondragon/mealbridge-backend/internal/tracking"
	pkgAuth "github.com/angelmondragon/mealbridge-backend/pkg/auth"
	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

type locationRequest struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lng *float64 `json:"lng" validate:"required"`
}

// UpdateDeliveryLocation stores a courier position and fans it out to trackers.
func UpdateDeliveryLocation(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body locationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateLocation(r.Context(), tracking.LocationInput{
			OrderID:   orderID,
			CourierID: actor.UserID,
			Location:  types.GeographyPoint{Lat: *body.Lat, Lng: *body.Lng},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func DeliveryStatus(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.Status(r.Context(), actor.UserID, actor.Role, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// TrackingSocket authenticates the ?token= query parameter, since browsers
// cannot set headers on a websocket handshake, then hands the connection to the hub.
func TrackingSocket(hub *tracking.Hub, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking hub unavailable"))
			return
		}
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		claims, err := pkgAuth.ParseAccessToken(cfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserID(ctx, claims.UserID.String())
		}
		if err := hub.Serve(w, r.WithContext(ctx), claims.UserID, claims.Role); err != nil && logg != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "websocket upgrade failed")
		}
	}
}
