package menus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/meals"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/mealbridge-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// MenuDTO is a dated menu with its packages expanded.
type MenuDTO struct {
	ID           uuid.UUID              `json:"id"`
	ChefID       uuid.UUID              `json:"chefId"`
	Name         string                 `json:"name"`
	MenuDate     string                 `json:"menuDate"`
	MealPackages []meals.MealPackageDTO `json:"mealPackages"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// CreateMenuInput is the chef payload for POST /menus.
type CreateMenuInput struct {
	Name           string      `json:"name" validate:"required,max=200"`
	MenuDate       string      `json:"menuDate" validate:"required"`
	MealPackageIDs []uuid.UUID `json:"mealPackageIds" validate:"required,min=1"`
}

type mealLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MealPackage, error)
}

// Repository handles menus persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, menu *models.Menu) error {
	return r.db.WithContext(ctx).Create(menu).Error
}

// ListByDate returns menus dated on day, oldest first.
func (r *Repository) ListByDate(ctx context.Context, day time.Time) ([]models.Menu, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	var rows []models.Menu
	err := r.db.WithContext(ctx).
		Where("menu_date >= ? AND menu_date < ?", start, start.Add(24*time.Hour)).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

type menuRepository interface {
	Create(ctx context.Context, menu *models.Menu) error
	ListByDate(ctx context.Context, day time.Time) ([]models.Menu, error)
}

// Service exposes dated menu publishing.
type Service interface {
	Create(ctx context.Context, chefID uuid.UUID, input CreateMenuInput) (*MenuDTO, error)
	ListByDate(ctx context.Context, day time.Time) ([]MenuDTO, error)
}

type service struct {
	repo  menuRepository
	meals mealLoader
}

func NewService(repo menuRepository, mealsRepo mealLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if mealsRepo == nil {
		return nil, fmt.Errorf("meal repository required")
	}
	return &service{repo: repo, meals: mealsRepo}, nil
}

func (s *service) Create(ctx context.Context, chefID uuid.UUID, input CreateMenuInput) (*MenuDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	day, err := time.Parse(dateLayout, strings.TrimSpace(input.MenuDate))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "menuDate must be YYYY-MM-DD")
	}
	ids := dedupe(input.MealPackageIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mealPackageIds is required")
	}

	packages, err := s.meals.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal packages")
	}
	if len(packages) != len(ids) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal package not found")
	}
	for _, p := range packages {
		if p.ChefID != chefID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "menu may only include your own meal packages")
		}
	}

	menu := &models.Menu{
		ChefID:         chefID,
		Name:           name,
		MenuDate:       day.UTC(),
		MealPackageIDs: dbtypes.UUIDArray(ids),
	}
	if err := s.repo.Create(ctx, menu); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create menu")
	}
	return toDTO(menu, indexByID(packages)), nil
}

func (s *service) ListByDate(ctx context.Context, day time.Time) ([]MenuDTO, error) {
	rows, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list menus")
	}
	var ids []uuid.UUID
	for _, m := range rows {
		ids = append(ids, m.MealPackageIDs...)
	}
	packages, err := s.meals.FindByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal packages")
	}
	byID := indexByID(packages)

	out := make([]MenuDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i], byID))
	}
	return out, nil
}

func toDTO(menu *models.Menu, byID map[uuid.UUID]*models.MealPackage) *MenuDTO {
	dto := &MenuDTO{
		ID:           menu.ID,
		ChefID:       menu.ChefID,
		Name:         menu.Name,
		MenuDate:     menu.MenuDate.UTC().Format(dateLayout),
		MealPackages: []meals.MealPackageDTO{},
		CreatedAt:    menu.CreatedAt,
	}
	for _, id := range menu.MealPackageIDs {
		if p, ok := byID[id]; ok {
			dto.MealPackages = append(dto.MealPackages, *meals.FromModel(p))
		}
	}
	return dto
}

func indexByID(list []models.MealPackage) map[uuid.UUID]*models.MealPackage {
	out := make(map[uuid.UUID]*models.MealPackage, len(list))
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
