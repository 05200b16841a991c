package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
)

// last_error is truncated to this many bytes.
const lastErrorLimit = 1024

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Insert must run on the caller's transaction.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("outbox insert needs a transaction")
	}
	return tx.WithContext(ctx).Create(&event).Error
}

// FetchUnpublished returns pending rows oldest first. Rows whose
// attempt_count reached maxAttempts are skipped unless maxAttempts is 0.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	q := r.db.WithContext(ctx).Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	var rows []models.OutboxEvent
	if err := q.Order("created_at, id").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]any{"published_at": r.now().UTC()})
}

// MarkFailed records cause and counts one more attempt.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	return r.update(ctx, id, map[string]any{
		"last_error":    truncateError(cause),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// MarkTerminal sets attempt_count straight to attempts so the row drops out
// of capped fetches.
func (r *Repository) MarkTerminal(ctx context.Context, id uuid.UUID, cause error, attempts int) error {
	return r.update(ctx, id, map[string]any{
		"last_error":    truncateError(cause),
		"attempt_count": attempts,
	})
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{ID: id}).
		Updates(cols).Error
}

func truncateError(cause error) string {
	if cause == nil {
		return "unknown error"
	}
	msg := cause.Error()
	if len(msg) > lastErrorLimit {
		return msg[:lastErrorLimit]
	}
	return msg
}
