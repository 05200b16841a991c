package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/mealbridge-backend/api/responses"
	"github.com/angelmondragon/mealbridge-backend/api/validators"
	"github.com/angelmondragon/mealbridge-backend/internal/admin"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

func adminUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
}

func AdminStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			adminUnavailable(w, r, logg)
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminRecentOrders(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			adminUnavailable(w, r, logg)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", admin.DefaultRecentLimit, 1, admin.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.RecentOrders(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminMonthlySales defaults to the current UTC year.
func AdminMonthlySales(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			adminUnavailable(w, r, logg)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", time.Now().UTC().Year(), 2000, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buckets, err := svc.MonthlySales(r.Context(), year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buckets)
	}
}

func AdminPopularMeals(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			adminUnavailable(w, r, logg)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", admin.DefaultPopularLimit, 1, admin.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.PopularMeals(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
