package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

const (
	DefaultRecentLimit  = 10
	DefaultPopularLimit = 5
	MaxLimit            = 100
)

type Stats struct {
	TotalUsers     int64           `json:"totalUsers"`
	TotalCompanies int64           `json:"totalCompanies"`
	TotalMeals     int64           `json:"totalMeals"`
	TotalOrders    int64           `json:"totalOrders"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

type RecentOrder struct {
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"userId"`
	UserName       string               `json:"userName"`
	MealPackageID  uuid.UUID            `json:"mealPackageId"`
	MealName       string               `json:"mealName"`
	Status         enums.OrderStatus    `json:"status"`
	DeliveryStatus enums.DeliveryStatus `json:"deliveryStatus"`
	Total          decimal.Decimal      `json:"total"`
	CreatedAt      time.Time            `json:"createdAt"`
}

type MonthlySales struct {
	Month   int             `json:"month"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type PopularMeal struct {
	MealPackageID uuid.UUID `json:"mealPackageId"`
	Name          string    `json:"name"`
	Orders        int64     `json:"orders"`
}

// Service exposes the dashboard aggregates.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	MonthlySales(ctx context.Context, year int) ([]MonthlySales, error)
	PopularMeals(ctx context.Context, limit int) ([]PopularMeal, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stats")
	}
	return stats, nil
}

func (s *service) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := s.repo.RecentOrders(ctx, clampLimit(limit, DefaultRecentLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent orders")
	}
	if rows == nil {
		rows = []RecentOrder{}
	}
	return rows, nil
}

// MonthlySales always returns twelve buckets, January first, in UTC.
func (s *service) MonthlySales(ctx context.Context, year int) ([]MonthlySales, error) {
	if year < 2000 || year > 9999 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year is out of range")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.repo.OrdersBetween(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load monthly sales")
	}

	buckets := make([]MonthlySales, 12)
	for i := range buckets {
		buckets[i] = MonthlySales{Month: i + 1, Revenue: decimal.Zero}
	}
	for _, row := range rows {
		b := &buckets[row.CreatedAt.UTC().Month()-1]
		b.Orders++
		if row.Revenue.Valid {
			b.Revenue = b.Revenue.Add(row.Revenue.Decimal)
		}
	}
	return buckets, nil
}

func (s *service) PopularMeals(ctx context.Context, limit int) ([]PopularMeal, error) {
	rows, err := s.repo.PopularMeals(ctx, clampLimit(limit, DefaultPopularLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load popular meals")
	}
	if rows == nil {
		rows = []PopularMeal{}
	}
	return rows, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
