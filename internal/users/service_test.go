package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func seedUser(t *testing.T, repo *Repository, email string, role enums.UserRole) *models.User {
	t.Helper()
	dto := CreateUserDTO{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	}
	if role == enums.UserRoleHomeChef {
		specialty := "thai"
		dto.Specialty = &specialty
	}
	user, err := repo.Create(context.Background(), dto)
	require.NoError(t, err)
	return user
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)
	return svc, repo
}

func TestUpdateMeRehashesPassword(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "chef@example.com", enums.UserRoleHomeChef)

	password := "new-password-1"
	_, err := svc.UpdateMe(context.Background(), user.ID, UpdateMeInput{Password: &password})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hash", stored.PasswordHash)
	ok, err := security.VerifyPassword(password, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateMeRejectsTakenEmail(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "a@example.com", enums.UserRoleAdmin)
	seedUser(t, repo, "b@example.com", enums.UserRoleAdmin)

	email := "B@example.com"
	_, err := svc.UpdateMe(context.Background(), user.ID, UpdateMeInput{Email: &email})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestUpdateMeChefCannotClearSpecialty(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "chef@example.com", enums.UserRoleHomeChef)

	blank := "  "
	_, err := svc.UpdateMe(context.Background(), user.ID, UpdateMeInput{Specialty: &blank})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateMeUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	name := "x"
	_, err := svc.UpdateMe(context.Background(), uuid.New(), UpdateMeInput{Name: &name})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestSavePushSubscriptionOverwrites(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "emp@example.com", enums.UserRoleAdmin)
	ctx := context.Background()

	require.NoError(t, svc.SavePushSubscription(ctx, user.ID, []byte(`{"endpoint":"https://push.example/1"}`)))
	require.NoError(t, svc.SavePushSubscription(ctx, user.ID, []byte(`{"endpoint":"https://push.example/2"}`)))

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpoint":"https://push.example/2"}`, string(stored.PushSubscription))

	dto, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, dto.PushSubscribed)
}

func TestSavePushSubscriptionRejectsNonObjects(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "emp@example.com", enums.UserRoleAdmin)

	for _, raw := range []string{``, `[]`, `"x"`, `{}`} {
		err := svc.SavePushSubscription(context.Background(), user.ID, []byte(raw))
		require.Error(t, err, raw)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), raw)
	}
}

func TestValidateRoleFields(t *testing.T) {
	companyID := uuid.New()
	specialty := "vegan"

	assert.Error(t, ValidateRoleFields(enums.UserRoleCorporateEmployee, nil, nil))
	assert.NoError(t, ValidateRoleFields(enums.UserRoleCorporateEmployee, &companyID, nil))
	assert.Error(t, ValidateRoleFields(enums.UserRoleHomeChef, nil, nil))
	assert.NoError(t, ValidateRoleFields(enums.UserRoleHomeChef, nil, &specialty))
	assert.NoError(t, ValidateRoleFields(enums.UserRoleDeliveryPerson, nil, nil))
	assert.Error(t, ValidateRoleFields(enums.UserRole("chef"), nil, nil))
}
