package meals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/repo"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
)

// Repository handles meal_packages persistence.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, meal *models.MealPackage) error {
	return r.DB(ctx).Create(meal).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MealPackage, error) {
	var meal models.MealPackage
	if err := r.DB(ctx).Where("id = ?", id).First(&meal).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}

// FindByIDs loads every listed package; missing ids are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MealPackage, error) {
	var rows []models.MealPackage
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// Update writes updates only when chefID still owns the package.
func (r *Repository) Update(ctx context.Context, id, chefID uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.MealPackage{}).
		Where("id = ? AND chef_id = ?", id, chefID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// List returns one keyset page of packages matching filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.MealPackage, error) {
	scope, err := pagination.Scope("meal_packages", filters.Pagination)
	if err != nil {
		return nil, err
	}

	q := r.DB(ctx).Model(&models.MealPackage{})
	active := true
	if filters.Active != nil {
		active = *filters.Active
	}
	q = q.Where("active = ?", active)
	if filters.MealType != nil {
		q = q.Where("meal_type = ?", *filters.MealType)
	}
	if filters.ChefID != nil {
		q = q.Where("chef_id = ?", *filters.ChefID)
	}
	if filters.Dietary != "" {
		q = q.Where("? = ANY(dietary_options)", filters.Dietary)
	}

	var rows []models.MealPackage
	err = q.Scopes(scope).Find(&rows).Error
	return rows, err
}
