package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/internal/users"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service signup payload. CompanyID and Specialty
// are required depending on Role.
type RegisterRequest struct {
	Name      string         `json:"name" validate:"required,max=120"`
	Email     string         `json:"email" validate:"required,email"`
	Password  string         `json:"password" validate:"required,min=8"`
	Role      enums.UserRole `json:"role" validate:"required"`
	CompanyID *uuid.UUID     `json:"companyId,omitempty"`
	Specialty *string        `json:"specialty,omitempty"`
}

// AdminRegisterRequest is accepted only by the dev-mode admin bootstrap route.
type AdminRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse is returned by login and register.
type TokenResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}
