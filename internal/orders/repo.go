package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockMealPackage(ctx context.Context, mealPackageID uuid.UUID) error
	CountActiveForMealOnDay(ctx context.Context, mealPackageID uuid.UUID, day time.Time) (int64, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, from, to enums.DeliveryStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, point types.GeographyPoint, at time.Time) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListByChef(ctx context.Context, chefID uuid.UUID, params pagination.Params) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("MealPackage").Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("MealPackage").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockMealPackage takes a row lock on the meal package until the surrounding
// transaction ends, so concurrent checkouts of one meal count and insert in
// turn. SQLite has no row locks and drops the clause.
func (r *repository) LockMealPackage(ctx context.Context, mealPackageID uuid.UUID) error {
	var locked models.MealPackage
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", mealPackageID).
		Take(&locked).Error
}

// CountActiveForMealOnDay counts non-cancelled orders scheduled on the UTC day containing day.
func (r *repository) CountActiveForMealOnDay(ctx context.Context, mealPackageID uuid.UUID, day time.Time) (int64, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("meal_package_id = ?", mealPackageID).
		Where("scheduled_for >= ? AND scheduled_for < ?", start, start.Add(24*time.Hour)).
		Where("status <> ?", enums.OrderStatusCancelled).
		Count(&count).Error
	return count, err
}

// UpdateDeliveryStatus is a compare-and-set: it only writes when the row still holds from.
func (r *repository) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, from, to enums.DeliveryStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND delivery_status = ?", id, from).
		Updates(map[string]any{
			"delivery_status": to,
			"updated_at":      time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateLocation(ctx context.Context, id uuid.UUID, point types.GeographyPoint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"location":            point,
			"location_updated_at": at,
			"updated_at":          at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	scope, err := pagination.Scope("orders", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	err = r.db.WithContext(ctx).
		Preload("MealPackage").
		Where("orders.user_id = ?", userID).
		Scopes(scope).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByChef(ctx context.Context, chefID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	scope, err := pagination.Scope("orders", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	err = r.db.WithContext(ctx).
		Preload("MealPackage").
		Joins("JOIN meal_packages mp ON mp.id = orders.meal_package_id").
		Where("mp.chef_id = ?", chefID).
		Scopes(scope).
		Find(&rows).Error
	return rows, err
}
