package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mealbridge-backend/internal/repo"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
)

// Repository handles company persistence and the company_meal_packages join table.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, company *models.Company) error {
	return r.DB(ctx).Create(company).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.DB(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Exists reports whether a company with id is present.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Base.Exists(ctx, &models.Company{}, id)
}

func (r *Repository) List(ctx context.Context) ([]models.Company, error) {
	var rows []models.Company
	err := r.DB(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).Model(&models.Company{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// AddMealPackage links the package; an existing link is left as is.
func (r *Repository) AddMealPackage(ctx context.Context, companyID, mealPackageID uuid.UUID) error {
	link := models.CompanyMealPackage{CompanyID: companyID, MealPackageID: mealPackageID}
	return r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// ListMealPackages returns the packages a company offers, newest link first.
func (r *Repository) ListMealPackages(ctx context.Context, companyID uuid.UUID) ([]models.MealPackage, error) {
	var rows []models.MealPackage
	err := r.DB(ctx).
		Joins("JOIN company_meal_packages cmp ON cmp.meal_package_id = meal_packages.id").
		Where("cmp.company_id = ?", companyID).
		Order("cmp.created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindMealPackage(ctx context.Context, id uuid.UUID) (*models.MealPackage, error) {
	var meal models.MealPackage
	if err := r.DB(ctx).Where("id = ?", id).First(&meal).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}
