package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

// UserDTO is the transport shape that omits credentials and the raw push subscription.
type UserDTO struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Role           enums.UserRole `json:"role"`
	CompanyID      *uuid.UUID     `json:"companyId,omitempty"`
	Specialty      *string        `json:"specialty,omitempty"`
	PushSubscribed bool           `json:"pushSubscribed"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.UserRole
	CompanyID    *uuid.UUID
	Specialty    *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		CompanyID:      u.CompanyID,
		Specialty:      u.Specialty,
		PushSubscribed: !u.PushSubscription.IsEmpty(),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         strings.TrimSpace(c.Name),
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		CompanyID:    c.CompanyID,
		Specialty:    c.Specialty,
	}
}

// ValidateRoleFields enforces the role-conditional columns: a corporate employee
// needs a company and a home chef needs a specialty.
func ValidateRoleFields(role enums.UserRole, companyID *uuid.UUID, specialty *string) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if role.RequiresCompany() && (companyID == nil || *companyID == uuid.Nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "companyId is required for corporate employees")
	}
	if role.RequiresSpecialty() && (specialty == nil || strings.TrimSpace(*specialty) == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "specialty is required for home chefs")
	}
	return nil
}
