package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/mealbridge-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/mealbridge-backend/api/controllers/webhooks"
	"github.com/angelmondragon/mealbridge-backend/api/middleware"
	"github.com/angelmondragon/mealbridge-backend/internal/admin"
	"github.com/angelmondragon/mealbridge-backend/internal/auth"
	"github.com/angelmondragon/mealbridge-backend/internal/companies"
	"github.com/angelmondragon/mealbridge-backend/internal/meals"
	"github.com/angelmondragon/mealbridge-backend/internal/menus"
	"github.com/angelmondragon/mealbridge-backend/internal/notifications"
	"github.com/angelmondragon/mealbridge-backend/internal/orders"
	"github.com/angelmondragon/mealbridge-backend/internal/payments"
	"github.com/angelmondragon/mealbridge-backend/internal/tracking"
	"github.com/angelmondragon/mealbridge-backend/internal/users"
	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db"
	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
	"github.com/angelmondragon/mealbridge-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/mealbridge-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer depends on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type webhookGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

type webhookVerifier interface {
	SigningSecret() string
}

// Dependencies carries everything NewRouter wires into handlers.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	DB       db.Pinger
	Redis    RedisStore
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth          auth.Service
	Users         users.Service
	Companies     companies.Service
	Meals         meals.Service
	Menus         menus.Service
	Orders        orders.Service
	Tracking      tracking.Service
	TrackingHub   *tracking.Hub
	Payments      payments.Service
	Notifications notifications.Service
	Admin         admin.Service

	StripeVerifier webhookVerifier
	StripeWebhook  webhookcontrollers.StripeWebhookService
	WebhookGuard   webhookGuard
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins()),
		deps.Metrics.Middleware,
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["postgres"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// Signature and query-token authenticated respectively.
	r.Post("/payments/webhook", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeVerifier, deps.WebhookGuard, logg))
	r.Get("/ws/tracking", controllers.TrackingSocket(deps.TrackingHub, cfg.JWT, logg))

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		if !cfg.App.IsProd() {
			r.Post("/admin/register", controllers.AuthAdminRegister(deps.Auth, cfg, logg))
		}
	})

	r.Get("/meals", controllers.ListMeals(deps.Meals, logg))
	r.Get("/meals/{id}", controllers.GetMeal(deps.Meals, logg))
	r.Get("/menus", controllers.ListMenus(deps.Menus, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/auth/me", controllers.AuthMe(deps.Users, logg))
		r.Patch("/users/me", controllers.UpdateMe(deps.Users, logg))

		r.With(middleware.RequireRole(logg, enums.UserRoleCorporateEmployee)).
			Post("/orders", controllers.CreateOrder(deps.Orders, logg))
		r.Get("/orders/my-orders", controllers.ListMyOrders(deps.Orders, logg))
		r.With(middleware.RequireRole(logg, enums.UserRoleHomeChef)).
			Get("/orders/chef", controllers.ListChefOrders(deps.Orders, logg))
		r.Get("/orders/{id}", controllers.GetOrder(deps.Orders, logg))
		r.With(middleware.RequireRole(logg, enums.UserRoleHomeChef, enums.UserRoleDeliveryPerson, enums.UserRoleAdmin)).
			Patch("/orders/{id}/status", controllers.UpdateOrderStatus(deps.Orders, logg))

		r.Route("/delivery", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.UserRoleDeliveryPerson, enums.UserRoleAdmin)).
				Post("/location/{orderId}", controllers.UpdateDeliveryLocation(deps.Tracking, logg))
			r.Get("/status/{orderId}", controllers.DeliveryStatus(deps.Tracking, logg))
		})

		r.With(middleware.RequireRole(logg, enums.UserRoleCorporateEmployee)).
			Post("/payments/create-payment-intent", controllers.CreatePaymentIntent(deps.Payments, logg))

		r.Post("/notifications/subscribe", controllers.SubscribePush(deps.Users, logg))
		r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleHomeChef))
			r.Post("/meals", controllers.CreateMeal(deps.Meals, logg))
			r.Patch("/meals/{id}", controllers.UpdateMeal(deps.Meals, logg))
			r.Post("/menus", controllers.CreateMenu(deps.Menus, logg))
		})

		r.Route("/companies", func(r chi.Router) {
			adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)
			adminOrCompany := middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleCompany)

			r.With(adminOnly).Post("/", controllers.CreateCompany(deps.Companies, logg))
			r.With(adminOnly).Get("/", controllers.ListCompanies(deps.Companies, logg))
			r.Get("/{id}", controllers.GetCompany(deps.Companies, logg))
			r.With(adminOnly).Patch("/{id}/subscription", controllers.UpdateCompanySubscription(deps.Companies, logg))
			r.With(adminOrCompany).Get("/{id}/employees", controllers.ListCompanyEmployees(deps.Companies, logg))
			r.With(adminOrCompany).Post("/{id}/meal-packages", controllers.AddCompanyMealPackage(deps.Companies, logg))
			r.With(adminOrCompany).Get("/{id}/meal-packages", controllers.ListCompanyMealPackages(deps.Companies, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Get("/stats", controllers.AdminStats(deps.Admin, logg))
			r.Get("/orders/recent", controllers.AdminRecentOrders(deps.Admin, logg))
			r.Get("/sales/monthly", controllers.AdminMonthlySales(deps.Admin, logg))
			r.Get("/meals/popular", controllers.AdminPopularMeals(deps.Admin, logg))
		})
	})

	return r
}
