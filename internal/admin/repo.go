// Package admin holds the read-only aggregates behind the admin dashboard.
package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// Repository runs aggregate SQL over the operational tables.
type Repository interface {
	Counts(ctx context.Context) (*Stats, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	OrdersBetween(ctx context.Context, from, to time.Time) ([]orderRevenueRow, error)
	PopularMeals(ctx context.Context, limit int) ([]PopularMeal, error)
}

type orderRevenueRow struct {
	CreatedAt time.Time
	Revenue   decimal.NullDecimal
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Counts(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{}
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Company{}).Count(&stats.TotalCompanies).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.MealPackage{}).Count(&stats.TotalMeals).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&models.Payment{}).
		Select("SUM(amount)").
		Where("status = ?", enums.PaymentStatusCompleted).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Decimal
	return stats, nil
}

func (r *repository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	var rows []RecentOrder
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id AS id, o.user_id AS user_id, u.name AS user_name, o.meal_package_id AS meal_package_id,
			m.name AS meal_name, o.status AS status, o.delivery_status AS delivery_status,
			o.price_total AS total, o.created_at AS created_at`).
		Joins("JOIN users u ON u.id = o.user_id").
		Joins("JOIN meal_packages m ON m.id = o.meal_package_id").
		Order("o.created_at DESC").
		Order("o.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// OrdersBetween returns each order created in [from, to) with its completed payment amount, if any.
func (r *repository) OrdersBetween(ctx context.Context, from, to time.Time) ([]orderRevenueRow, error) {
	var rows []orderRevenueRow
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.created_at AS created_at, p.amount AS revenue").
		Joins("LEFT JOIN payments p ON p.order_id = o.id AND p.status = ?", enums.PaymentStatusCompleted).
		Where("o.created_at >= ? AND o.created_at < ?", from, to).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) PopularMeals(ctx context.Context, limit int) ([]PopularMeal, error) {
	var rows []PopularMeal
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("m.id AS meal_package_id, m.name AS name, COUNT(o.id) AS orders").
		Joins("JOIN meal_packages m ON m.id = o.meal_package_id").
		Where("o.status <> ?", enums.OrderStatusCancelled).
		Group("m.id, m.name").
		Order("orders DESC").
		Order("m.name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
