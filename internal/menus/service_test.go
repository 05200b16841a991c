package menus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/meals"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

func seedMeal(t *testing.T, db *gorm.DB, chefID uuid.UUID) models.MealPackage {
	t.Helper()
	meal := models.MealPackage{
		Name:     "Bento",
		ChefID:   chefID,
		Price:    decimal.NewFromInt(10),
		MealType: enums.MealTypeLunch,
		Active:   true,
	}
	require.NoError(t, db.Create(&meal).Error)
	return meal
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db), meals.NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func TestCreateAndListByDate(t *testing.T) {
	svc, db := newTestService(t)
	chefID := uuid.New()
	a := seedMeal(t, db, chefID)
	b := seedMeal(t, db, chefID)

	menu, err := svc.Create(context.Background(), chefID, CreateMenuInput{
		Name:           "Monday specials",
		MenuDate:       "2026-03-02",
		MealPackageIDs: []uuid.UUID{a.ID, b.ID, a.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", menu.MenuDate)
	assert.Len(t, menu.MealPackages, 2)

	list, err := svc.ListByDate(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, menu.ID, list[0].ID)
	assert.Len(t, list[0].MealPackages, 2)

	list, err = svc.ListByDate(context.Background(), time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRejectsForeignMeal(t *testing.T) {
	svc, db := newTestService(t)
	chefID := uuid.New()
	own := seedMeal(t, db, chefID)
	foreign := seedMeal(t, db, uuid.New())

	_, err := svc.Create(context.Background(), chefID, CreateMenuInput{
		Name:           "Mixed",
		MenuDate:       "2026-03-02",
		MealPackageIDs: []uuid.UUID{own.ID, foreign.ID},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestCreateValidatesInput(t *testing.T) {
	svc, db := newTestService(t)
	chefID := uuid.New()
	own := seedMeal(t, db, chefID)

	_, err := svc.Create(context.Background(), chefID, CreateMenuInput{Name: "x", MenuDate: "03/02/2026", MealPackageIDs: []uuid.UUID{own.ID}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Create(context.Background(), chefID, CreateMenuInput{Name: "x", MenuDate: "2026-03-02", MealPackageIDs: []uuid.UUID{uuid.New()}})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
