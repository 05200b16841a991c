package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
)

// NotificationDTO is the API view of a stored notification.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	Link      *string                `json:"link,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Service defines notification reads.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[NotificationDTO], error)
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[NotificationDTO], error) {
	if userID == uuid.Nil {
		return pagination.Page[NotificationDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[NotificationDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	items := make([]NotificationDTO, 0, len(rows))
	for _, n := range rows {
		items = append(items, NotificationDTO{
			ID:        n.ID,
			Type:      n.Type,
			Message:   n.Message,
			Link:      n.Link,
			CreatedAt: n.CreatedAt.UTC(),
		})
	}
	return pagination.BuildPage(items, params.Limit, func(n NotificationDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	}), nil
}
