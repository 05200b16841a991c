package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
)

type seeded struct {
	db    *gorm.DB
	svc   Service
	user  *models.User
	curry *models.MealPackage
	salad *models.MealPackage
}

func seed(t *testing.T) *seeded {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	s := &seeded{db: conn, svc: svc}
	require.NoError(t, conn.Create(&models.Company{
		Name:               "Acme",
		Address:            "1 Main St",
		SubscriptionPlan:   enums.SubscriptionPlanBasic,
		SubscriptionStatus: enums.SubscriptionStatusActive,
	}).Error)
	chef := &models.User{Name: "Chef", Email: "chef@example.com", PasswordHash: "h", Role: enums.UserRoleHomeChef}
	require.NoError(t, conn.Create(chef).Error)
	s.user = &models.User{Name: "Dana", Email: "dana@example.com", PasswordHash: "h", Role: enums.UserRoleCorporateEmployee}
	require.NoError(t, conn.Create(s.user).Error)
	s.curry = &models.MealPackage{Name: "Curry", ChefID: chef.ID, Price: decimal.NewFromInt(10), MealType: enums.MealTypeLunch, Active: true}
	s.salad = &models.MealPackage{Name: "Salad", ChefID: chef.ID, Price: decimal.NewFromInt(8), MealType: enums.MealTypeLunch, Active: true}
	require.NoError(t, conn.Create(s.curry).Error)
	require.NoError(t, conn.Create(s.salad).Error)
	return s
}

func (s *seeded) order(t *testing.T, meal *models.MealPackage, createdAt time.Time, status enums.OrderStatus, paid bool) *models.Order {
	t.Helper()
	total := meal.Price.Add(decimal.NewFromInt(5))
	o := &models.Order{
		UserID:           s.user.ID,
		MealPackageID:    meal.ID,
		ScheduledFor:     createdAt.Add(24 * time.Hour),
		DeliveryStatus:   enums.DeliveryStatusPending,
		Status:           status,
		PriceMeal:        meal.Price,
		PriceDeliveryFee: decimal.NewFromInt(5),
		PriceTotal:       total,
		CreatedAt:        createdAt,
	}
	require.NoError(t, s.db.Create(o).Error)
	if paid {
		require.NoError(t, s.db.Create(&models.Payment{
			OrderID:  o.ID,
			Amount:   total,
			Currency: "usd",
			Status:   enums.PaymentStatusCompleted,
		}).Error)
	}
	return o
}

func TestStatsCountsAndRevenue(t *testing.T) {
	s := seed(t)
	jan := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.order(t, s.curry, jan, enums.OrderStatusConfirmed, true)
	s.order(t, s.salad, jan, enums.OrderStatusPending, false)

	stats, err := s.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalCompanies)
	assert.EqualValues(t, 2, stats.TotalMeals)
	assert.EqualValues(t, 2, stats.TotalOrders)
	assert.True(t, decimal.NewFromInt(15).Equal(stats.TotalRevenue), stats.TotalRevenue.String())
}

func TestMonthlySalesReturnsTwelveBuckets(t *testing.T) {
	s := seed(t)
	s.order(t, s.curry, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), enums.OrderStatusConfirmed, true)
	s.order(t, s.salad, time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC), enums.OrderStatusPending, false)
	s.order(t, s.salad, time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC), enums.OrderStatusConfirmed, true)
	s.order(t, s.curry, time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC), enums.OrderStatusConfirmed, true)

	buckets, err := s.svc.MonthlySales(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, buckets, 12)
	assert.Equal(t, 1, buckets[0].Month)
	assert.EqualValues(t, 2, buckets[0].Orders)
	assert.True(t, decimal.NewFromInt(15).Equal(buckets[0].Revenue))
	assert.EqualValues(t, 0, buckets[1].Orders)
	assert.True(t, decimal.Zero.Equal(buckets[1].Revenue))
	assert.EqualValues(t, 1, buckets[2].Orders)
	assert.True(t, decimal.NewFromInt(13).Equal(buckets[2].Revenue))
	assert.Equal(t, 12, buckets[11].Month)

	_, err = s.svc.MonthlySales(context.Background(), 1)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestRecentOrdersJoinNames(t *testing.T) {
	s := seed(t)
	older := s.order(t, s.curry, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC), enums.OrderStatusPending, false)
	newer := s.order(t, s.salad, time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC), enums.OrderStatusPending, false)

	rows, err := s.svc.RecentOrders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, "Dana", rows[0].UserName)
	assert.Equal(t, "Salad", rows[0].MealName)

	rows, err = s.svc.RecentOrders(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, older.ID, rows[1].ID)
}

func TestPopularMealsSkipsCancelled(t *testing.T) {
	s := seed(t)
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s.order(t, s.salad, at, enums.OrderStatusPending, false)
	s.order(t, s.curry, at, enums.OrderStatusPending, false)
	s.order(t, s.curry, at, enums.OrderStatusConfirmed, false)
	s.order(t, s.salad, at, enums.OrderStatusCancelled, false)
	s.order(t, s.salad, at, enums.OrderStatusCancelled, false)

	rows, err := s.svc.PopularMeals(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, s.curry.ID, rows[0].MealPackageID)
	assert.EqualValues(t, 2, rows[0].Orders)
	assert.Equal(t, "Salad", rows[1].Name)
	assert.EqualValues(t, 1, rows[1].Orders)
}

type brokenRepo struct{ Repository }

func (brokenRepo) Counts(context.Context) (*Stats, error) { return nil, errors.New("db gone") }

func TestStatsWrapsRepositoryErrors(t *testing.T) {
	svc, err := NewService(brokenRepo{})
	require.NoError(t, err)
	_, err = svc.Stats(context.Background())
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))

	_, err = NewService(nil)
	assert.Error(t, err)
}
