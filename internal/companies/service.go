package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/meals"
	"github.com/angelmondragon/mealbridge-backend/internal/users"
	"github.com/angelmondragon/mealbridge-backend/pkg/db"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

type companyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	AddMealPackage(ctx context.Context, companyID, mealPackageID uuid.UUID) error
	ListMealPackages(ctx context.Context, companyID uuid.UUID) ([]models.MealPackage, error)
	FindMealPackage(ctx context.Context, id uuid.UUID) (*models.MealPackage, error)
}

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.User, error)
}

// Service exposes company administration.
type Service interface {
	Create(ctx context.Context, input CreateCompanyInput) (*CompanyDTO, error)
	List(ctx context.Context) ([]CompanyDTO, error)
	Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*CompanyDTO, error)
	SetSubscription(ctx context.Context, id uuid.UUID, input SubscriptionInput) (*CompanyDTO, error)
	ListEmployees(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) ([]users.UserDTO, error)
	AddMealPackage(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID, input AddMealPackageInput) error
	ListMealPackages(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) ([]meals.MealPackageDTO, error)
}

type service struct {
	repo  companyRepository
	users usersRepository
}

func NewService(repo companyRepository, usersRepo usersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, users: usersRepo}, nil
}

func (s *service) Create(ctx context.Context, input CreateCompanyInput) (*CompanyDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.SubscriptionPlan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription plan")
	}
	company := &models.Company{
		Name:               name,
		Address:            strings.TrimSpace(input.Address),
		SubscriptionPlan:   input.SubscriptionPlan,
		SubscriptionStatus: enums.SubscriptionStatusPending,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "company name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create company")
	}
	return FromModel(company), nil
}

func (s *service) List(ctx context.Context) ([]CompanyDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list companies")
	}
	out := make([]CompanyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*CompanyDTO, error) {
	if err := s.authorize(ctx, actorID, role, id); err != nil {
		return nil, err
	}
	company, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(company), nil
}

func (s *service) SetSubscription(ctx context.Context, id uuid.UUID, input SubscriptionInput) (*CompanyDTO, error) {
	if !input.Plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription plan")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription status")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not precede startDate")
	}

	updates := map[string]any{
		"subscription_plan":   input.Plan,
		"subscription_status": input.Status,
		"subscription_start":  utcPtr(input.StartDate),
		"subscription_end":    utcPtr(input.EndDate),
	}
	rows, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	company, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(company), nil
}

func (s *service) ListEmployees(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) ([]users.UserDTO, error) {
	if err := s.authorize(ctx, actorID, role, id); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.users.ListByCompany(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list employees")
	}
	employees := make([]models.User, 0, len(rows))
	for _, u := range rows {
		if u.Role == enums.UserRoleCorporateEmployee {
			employees = append(employees, u)
		}
	}
	return users.FromModels(employees), nil
}

func (s *service) AddMealPackage(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID, input AddMealPackageInput) error {
	if err := s.authorize(ctx, actorID, role, id); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if _, err := s.repo.FindMealPackage(ctx, input.MealPackageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "meal package not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load meal package")
	}
	if err := s.repo.AddMealPackage(ctx, id, input.MealPackageID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link meal package")
	}
	return nil
}

func (s *service) ListMealPackages(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) ([]meals.MealPackageDTO, error) {
	if err := s.authorize(ctx, actorID, role, id); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListMealPackages(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list company meal packages")
	}
	return meals.FromModels(rows), nil
}

// authorize lets admins through and otherwise requires the actor to belong to the company.
func (s *service) authorize(ctx context.Context, actorID uuid.UUID, role enums.UserRole, companyID uuid.UUID) error {
	if role == enums.UserRoleAdmin {
		return nil
	}
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load actor")
	}
	if user.CompanyID == nil || *user.CompanyID != companyID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this company")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load company")
	}
	return company, nil
}
