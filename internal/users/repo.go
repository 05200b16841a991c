package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/repo"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists dto and returns the stored row with its generated id.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail expects an already normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, cond string, arg any) (*models.User, error) {
	user := new(models.User)
	if err := r.DB(ctx).Where(cond, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Update reports how many rows matched so callers can map 0 to not found.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).Model(&models.User{ID: id}).Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) SavePushSubscription(ctx context.Context, id uuid.UUID, sub types.JSONObject) (int64, error) {
	return r.Update(ctx, id, map[string]any{"push_subscription": sub})
}

func (r *Repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.User, error) {
	var rows []models.User
	err := r.DB(ctx).Where("company_id = ?", companyID).Order("name").Find(&rows).Error
	return rows, err
}
