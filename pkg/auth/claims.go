package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	// JTI is generated when empty.
	JTI string
}

// AccessTokenClaims is the bearer token body. The user id travels as "sub";
// UserID is filled from it on parse.
type AccessTokenClaims struct {
	Role   enums.UserRole `json:"role"`
	UserID uuid.UUID      `json:"-"`
	jwt.RegisteredClaims
}
