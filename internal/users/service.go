package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/security"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// Service covers self-service profile operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateMeInput) (*UserDTO, error)
	SavePushSubscription(ctx context.Context, userID uuid.UUID, raw []byte) error
}

// UpdateMeInput is a partial profile update; nil fields are left untouched.
type UpdateMeInput struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Specialty *string `json:"specialty,omitempty" validate:"omitempty,max=120"`
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	SavePushSubscription(ctx context.Context, id uuid.UUID, sub types.JSONObject) (int64, error)
}

type service struct {
	repo        userStore
	passwordCfg config.PasswordConfig
}

// NewService builds the profile service.
func NewService(repo userStore, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateMeInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
			}
			updates["email"] = email
		}
	}
	if input.Password != nil {
		if err := security.ValidatePassword(*input.Password); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		updates["password_hash"] = hash
	}
	if input.Specialty != nil {
		specialty := strings.TrimSpace(*input.Specialty)
		if err := ValidateRoleFields(user.Role, user.CompanyID, &specialty); err != nil {
			return nil, err
		}
		updates["specialty"] = specialty
	}

	if len(updates) == 0 {
		return FromModel(user), nil
	}

	if _, err := s.repo.Update(ctx, userID, updates); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return s.Me(ctx, userID)
}

// SavePushSubscription stores raw as the user's push subscription, replacing any previous value.
func (s *service) SavePushSubscription(ctx context.Context, userID uuid.UUID, raw []byte) error {
	sub, err := types.ParseJSONObject(raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "subscription must be a non-empty JSON object")
	}
	rows, err := s.repo.SavePushSubscription(ctx, userID, sub)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save push subscription")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
