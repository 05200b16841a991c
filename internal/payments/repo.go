package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

// Repository persists the single payment row of each order.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	Upsert(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	MarkFailed(ctx context.Context, orderID uuid.UUID, intentID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// Upsert keys on order_id and returns the stored row.
func (r *repository) Upsert(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "currency", "status", "stripe_payment_intent_id", "updated_at"}),
		}).
		Create(payment).Error
	if err != nil {
		return nil, err
	}
	return r.FindByOrderID(ctx, payment.OrderID)
}

// MarkFailed fails the payment only while it still carries intentID and has
// not completed. A late failure for a superseded intent matches no row.
func (r *repository) MarkFailed(ctx context.Context, orderID uuid.UUID, intentID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND stripe_payment_intent_id = ? AND status <> ?", orderID, intentID, enums.PaymentStatusCompleted).
		Updates(map[string]any{
			"status":     enums.PaymentStatusFailed,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
