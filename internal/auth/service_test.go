package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealbridge-backend/internal/users"
	pkgAuth "github.com/angelmondragon/mealbridge-backend/pkg/auth"
	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db/models"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/security"
)

type stubUserRepository struct {
	data    map[string]*models.User
	created *models.User
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*models.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubCompanies struct {
	known map[uuid.UUID]bool
}

func (s stubCompanies) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "mealbridge", ExpirationMinutes: 30}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func buildTestService(t *testing.T, repo *stubUserRepository, companies stubCompanies) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Companies:      companies,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
		Now:            func() time.Time { return time.Now() },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestLoginIssuesRoleClaim(t *testing.T) {
	repo := newStubUserRepository()
	specialty := "thai"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Chef",
		Email:        "chef@example.com",
		PasswordHash: mustHashPassword(t, "chef-password"),
		Role:         enums.UserRoleHomeChef,
		Specialty:    &specialty,
	}
	repo.data[user.Email] = user
	svc := buildTestService(t, repo, stubCompanies{})

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Chef@Example.com ", Password: "chef-password"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleHomeChef {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user in response")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := newStubUserRepository()
	repo.data["a@example.com"] = &models.User{
		ID:           uuid.New(),
		Email:        "a@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		Role:         enums.UserRoleAdmin,
	}
	svc := buildTestService(t, repo, stubCompanies{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "x"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestRegisterEmployeeRequiresKnownCompany(t *testing.T) {
	companyID := uuid.New()
	repo := newStubUserRepository()
	svc := buildTestService(t, repo, stubCompanies{known: map[uuid.UUID]bool{companyID: true}})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Emp", Email: "emp@example.com", Password: "password-1", Role: enums.UserRoleCorporateEmployee,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without company, got %v", err)
	}

	unknown := uuid.New()
	_, err = svc.Register(context.Background(), RegisterRequest{
		Name: "Emp", Email: "emp@example.com", Password: "password-1", Role: enums.UserRoleCorporateEmployee, CompanyID: &unknown,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown company, got %v", err)
	}

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Emp", Email: "EMP@example.com", Password: "password-1", Role: enums.UserRoleCorporateEmployee, CompanyID: &companyID,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if repo.created == nil || repo.created.Email != "emp@example.com" {
		t.Fatalf("expected normalized email to be stored")
	}
	if repo.created.CompanyID == nil || *repo.created.CompanyID != companyID {
		t.Fatalf("expected company id to be stored")
	}
	if repo.created.PasswordHash == "password-1" {
		t.Fatalf("password stored in clear text")
	}
	if resp.Token == "" {
		t.Fatalf("expected token")
	}
}

func TestRegisterChefRequiresSpecialtyAndDropsCompany(t *testing.T) {
	repo := newStubUserRepository()
	svc := buildTestService(t, repo, stubCompanies{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Chef", Email: "chef@example.com", Password: "password-1", Role: enums.UserRoleHomeChef,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	specialty := " ramen "
	stray := uuid.New()
	if _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Chef", Email: "chef@example.com", Password: "password-1", Role: enums.UserRoleHomeChef,
		Specialty: &specialty, CompanyID: &stray,
	}); err != nil {
		t.Fatalf("register chef: %v", err)
	}
	if repo.created.CompanyID != nil {
		t.Fatalf("chef should not carry a company id")
	}
	if repo.created.Specialty == nil || *repo.created.Specialty != "ramen" {
		t.Fatalf("unexpected specialty %v", repo.created.Specialty)
	}
}

func TestRegisterRejectsDuplicateEmailAndAdminRole(t *testing.T) {
	repo := newStubUserRepository()
	repo.data["taken@example.com"] = &models.User{ID: uuid.New(), Email: "taken@example.com"}
	svc := buildTestService(t, repo, stubCompanies{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "D", Email: "taken@example.com", Password: "password-1", Role: enums.UserRoleDeliveryPerson,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Name: "A", Email: "admin@example.com", Password: "password-1", Role: enums.UserRoleAdmin,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected admin self-register to fail validation, got %v", err)
	}
}

func TestRegisterAdmin(t *testing.T) {
	repo := newStubUserRepository()
	svc := buildTestService(t, repo, stubCompanies{})

	resp, err := svc.RegisterAdmin(context.Background(), AdminRegisterRequest{
		Name: "Ops", Email: "ops@example.com", Password: "password-1",
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if resp.User.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role, got %s", resp.User.Role)
	}
}
