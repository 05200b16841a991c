package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
)

func TestDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)
}

func TestExists(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	company := models.Company{
		Name:               "Acme",
		Address:            "1 Main St",
		SubscriptionPlan:   enums.SubscriptionPlanBasic,
		SubscriptionStatus: enums.SubscriptionStatusActive,
	}
	require.NoError(t, conn.Create(&company).Error)

	ok, err := base.Exists(context.Background(), &models.Company{}, company.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = base.Exists(context.Background(), &models.Company{}, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTxSeesUncommittedRows(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		company := models.Company{
			Name:               "Globex",
			Address:            "2 Side St",
			SubscriptionPlan:   enums.SubscriptionPlanBasic,
			SubscriptionStatus: enums.SubscriptionStatusActive,
		}
		require.NoError(t, tx.Create(&company).Error)

		ok, err := base.WithTx(tx).Exists(context.Background(), &models.Company{}, company.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, base, base.WithTx(nil))
}
