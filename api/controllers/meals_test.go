package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/internal/meals"
	"github.com/angelmondragon/mealbridge-backend/internal/menus"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/pagination"
)

type stubMealsService struct {
	filters meals.ListFilters
	created []meals.CreateMealInput
	chefID  uuid.UUID
	err     error
}

func (s *stubMealsService) List(ctx context.Context, filters meals.ListFilters) (pagination.Page[meals.MealPackageDTO], error) {
	s.filters = filters
	return pagination.Page[meals.MealPackageDTO]{Items: []meals.MealPackageDTO{}}, s.err
}

func (s *stubMealsService) Get(ctx context.Context, id uuid.UUID) (*meals.MealPackageDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &meals.MealPackageDTO{ID: id, Name: "Curry"}, nil
}

func (s *stubMealsService) Create(ctx context.Context, chefID uuid.UUID, input meals.CreateMealInput) (*meals.MealPackageDTO, error) {
	s.chefID = chefID
	s.created = append(s.created, input)
	return &meals.MealPackageDTO{ID: uuid.New(), Name: input.Name, ChefID: chefID}, s.err
}

func (s *stubMealsService) Update(ctx context.Context, chefID, mealID uuid.UUID, input meals.UpdateMealInput) (*meals.MealPackageDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &meals.MealPackageDTO{ID: mealID, ChefID: chefID}, nil
}

type stubMenusService struct {
	day time.Time
}

func (s *stubMenusService) Create(ctx context.Context, chefID uuid.UUID, input menus.CreateMenuInput) (*menus.MenuDTO, error) {
	return &menus.MenuDTO{ID: uuid.New(), ChefID: chefID, Name: input.Name, MenuDate: input.MenuDate}, nil
}

func (s *stubMenusService) ListByDate(ctx context.Context, day time.Time) ([]menus.MenuDTO, error) {
	s.day = day
	return []menus.MenuDTO{}, nil
}

func TestListMealsFilters(t *testing.T) {
	svc := &stubMealsService{}
	chefID := uuid.New()
	rec, _ := serve(ListMeals(svc, nil), newRequest(t, http.MethodGet, "/meals?mealType=lunch&dietary=Vegan&chefId="+chefID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.filters.MealType)
	assert.Equal(t, enums.MealTypeLunch, *svc.filters.MealType)
	assert.Equal(t, "Vegan", svc.filters.Dietary)
	assert.Equal(t, chefID, *svc.filters.ChefID)
	require.NotNil(t, svc.filters.Active)
	assert.True(t, *svc.filters.Active)

	serve(ListMeals(svc, nil), newRequest(t, http.MethodGet, "/meals?active=false", nil))
	assert.False(t, *svc.filters.Active)

	rec, _ = serve(ListMeals(svc, nil), newRequest(t, http.MethodGet, "/meals?mealType=brunch", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMealOwnedByCaller(t *testing.T) {
	svc := &stubMealsService{}
	chefID := uuid.New()
	req := asActor(newRequest(t, http.MethodPost, "/meals", map[string]any{
		"name": "Green Curry", "price": decimal.RequireFromString("12.50"), "mealType": "dinner",
	}), chefID, enums.UserRoleHomeChef)
	rec, _ := serve(CreateMeal(svc, nil), req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, chefID, svc.chefID)
	require.Len(t, svc.created, 1)
	assert.Equal(t, "Green Curry", svc.created[0].Name)
}

func TestUpdateMealForbiddenForOtherChef(t *testing.T) {
	svc := &stubMealsService{err: pkgerrors.New(pkgerrors.CodeForbidden, "meal package belongs to another chef")}
	req := asActor(newRequest(t, http.MethodPatch, "/", map[string]any{"name": "x"}), uuid.New(), enums.UserRoleHomeChef)
	req = withURLParam(req, "id", uuid.NewString())
	rec, _ := serve(UpdateMeal(svc, nil), req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetMealNotFound(t *testing.T) {
	svc := &stubMealsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "meal package not found")}
	req := withURLParam(newRequest(t, http.MethodGet, "/", nil), "id", uuid.NewString())
	rec, _ := serve(GetMeal(svc, nil), req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMenusByDate(t *testing.T) {
	svc := &stubMenusService{}
	rec, _ := serve(ListMenus(svc, nil), newRequest(t, http.MethodGet, "/menus?date=2026-03-02", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), svc.day)

	rec, _ = serve(ListMenus(svc, nil), newRequest(t, http.MethodGet, "/menus?date=03/02/2026", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMenu(t *testing.T) {
	svc := &stubMenusService{}
	req := asActor(newRequest(t, http.MethodPost, "/menus", map[string]any{
		"name": "Monday", "menuDate": "2026-03-02", "mealPackageIds": []uuid.UUID{uuid.New()},
	}), uuid.New(), enums.UserRoleHomeChef)
	rec, env := serve(CreateMenu(svc, nil), req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"menuDate":"2026-03-02"`)
}
