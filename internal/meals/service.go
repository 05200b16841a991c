package meals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/mealbridge-backend/pkg/db/types"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
)

type mealRepository interface {
	Create(ctx context.Context, meal *models.MealPackage) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MealPackage, error)
	Update(ctx context.Context, id, chefID uuid.UUID, updates map[string]any) (int64, error)
	List(ctx context.Context, filters ListFilters) ([]models.MealPackage, error)
}

// Service exposes meal package catalog operations.
type Service interface {
	List(ctx context.Context, filters ListFilters) (pagination.Page[MealPackageDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*MealPackageDTO, error)
	Create(ctx context.Context, chefID uuid.UUID, input CreateMealInput) (*MealPackageDTO, error)
	Update(ctx context.Context, chefID, mealID uuid.UUID, input UpdateMealInput) (*MealPackageDTO, error)
}

type service struct {
	repo mealRepository
}

func NewService(repo mealRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("meal repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) (pagination.Page[MealPackageDTO], error) {
	if filters.MealType != nil && !filters.MealType.IsValid() {
		return pagination.Page[MealPackageDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid mealType")
	}
	filters.Dietary = strings.ToLower(strings.TrimSpace(filters.Dietary))
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return pagination.Page[MealPackageDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list meal packages")
	}
	return pagination.BuildPage(FromModels(rows), filters.Pagination.Limit, func(m MealPackageDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MealPackageDTO, error) {
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(meal), nil
}

func (s *service) Create(ctx context.Context, chefID uuid.UUID, input CreateMealInput) (*MealPackageDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if !input.MealType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mealType")
	}
	if input.MaxOrdersPerDay < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maxOrdersPerDay must not be negative")
	}
	days, err := normalizeDays(input.AvailableDays)
	if err != nil {
		return nil, err
	}

	meal := &models.MealPackage{
		Name:            name,
		Description:     input.Description,
		ChefID:          chefID,
		Price:           input.Price.Round(2),
		MealType:        input.MealType,
		DietaryOptions:  normalizeTags(input.DietaryOptions),
		NutritionalInfo: input.NutritionalInfo,
		AvailableDays:   days,
		MaxOrdersPerDay: input.MaxOrdersPerDay,
		Active:          true,
	}
	if err := s.repo.Create(ctx, meal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create meal package")
	}
	return FromModel(meal), nil
}

func (s *service) Update(ctx context.Context, chefID, mealID uuid.UUID, input UpdateMealInput) (*MealPackageDTO, error) {
	meal, err := s.load(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.ChefID != chefID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "meal package belongs to another chef")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.MealType != nil {
		if !input.MealType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mealType")
		}
		updates["meal_type"] = *input.MealType
	}
	if input.DietaryOptions != nil {
		updates["dietary_options"] = normalizeTags(*input.DietaryOptions)
	}
	if input.NutritionalInfo != nil {
		updates["nutritional_info"] = *input.NutritionalInfo
	}
	if input.AvailableDays != nil {
		days, err := normalizeDays(*input.AvailableDays)
		if err != nil {
			return nil, err
		}
		updates["available_days"] = days
	}
	if input.MaxOrdersPerDay != nil {
		if *input.MaxOrdersPerDay < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "maxOrdersPerDay must not be negative")
		}
		updates["max_orders_per_day"] = *input.MaxOrdersPerDay
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) > 0 {
		rows, err := s.repo.Update(ctx, mealID, chefID, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update meal package")
		}
		if rows == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "meal package belongs to another chef")
		}
	}
	return s.Get(ctx, mealID)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.MealPackage, error) {
	meal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal package")
	}
	return meal, nil
}

func normalizeTags(tags []string) dbtypes.StringArray {
	out := dbtypes.StringArray{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !out.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out
}

func normalizeDays(days []string) (dbtypes.StringArray, error) {
	out := dbtypes.StringArray{}
	for _, raw := range days {
		day, err := enums.ParseWeekday(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid available day %q", raw))
		}
		if !out.Contains(string(day)) {
			out = append(out, string(day))
		}
	}
	return out, nil
}
