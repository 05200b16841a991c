package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

type actorKey struct{}

// Actor is the authenticated caller resolved from the bearer token.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// WithActor is what Auth stores; handler tests call it directly.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	return context.WithValue(ctx, actorKey{}, Actor{UserID: userID, Role: role})
}

// ActorFromContext returns UNAUTHORIZED when the request did not pass through Auth.
func ActorFromContext(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == uuid.Nil {
		return Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	if !actor.Role.IsValid() {
		return Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing")
	}
	return actor, nil
}
