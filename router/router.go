package router

import (
	"errors"
	"time"

	"github.com/fazamuttaqien/lendora/config"
	mysqldb "github.com/fazamuttaqien/lendora/infra/mysql"
	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/middleware"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/ratelimiter"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"
	"github.com/fazamuttaqien/lendora/presenter"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(
	presenter presenter.Presenter,
	db *gorm.DB,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
	limiter *ratelimiter.RateLimiter,
	store *session.Store,
) *fiber.App {
	jwtAuth := middleware.NewJWTAuthMiddleware(cfg.JWT_SECRET_KEY)
	csrf := middleware.NewCSRFMiddleware(store)
	requireAdmin := middleware.RequireRole(domain.AdminRole)
	requireCustomer := middleware.RequireRole(domain.CustomerRole)

	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorCustomHandler(tel.Log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DEVELOPMENT_MODE}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ALLOWED_ORIGINS,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.CSRFHeader,
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: cfg.ALLOWED_ORIGINS != "*",
	}))

	if cfg.DEVELOPMENT_MODE {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${ip} ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(otelfiber.Middleware(
		otelfiber.WithTracerProvider(tel.TracerProvider),
		otelfiber.WithPropagators(otel.GetTextMapPropagator()),
	))

	if cfg.REQUESTS_METRIC {
		tel.Log.Info("Enabling HTTP request metrics middleware")
		metrics := middleware.NewRequestMetrics(tel.Meter("http-server"), tel.Log)
		app.Use(metrics.Handle())
	} else {
		tel.Log.Info("HTTP request metrics middleware is disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := mysqldb.Ping(c.UserContext(), db); err != nil {
			tel.Log.Error("Health check failed: database ping error", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"service":     cfg.SERVICE_NAME,
			"version":     cfg.SERVICE_VERSION,
			"environment": cfg.ENVIRONMENT,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api/v1", limiter.Middleware())

	authAPI := api.Group("/auth")
	{
		authAPI.Post("/register", presenter.ProfilePresenter.Register)
		authAPI.Post("/login", presenter.PrivatePresenter.Login)
		authAPI.Post("/logout", jwtAuth, csrf, presenter.PrivatePresenter.Logout)
		authAPI.Post("/password-reset", presenter.PrivatePresenter.RequestPasswordReset)
		authAPI.Get("/csrf-token", presenter.PrivatePresenter.CSRFToken)
	}

	// csrf lets reads through, so the whole group can carry it.
	meAPI := api.Group("/me", jwtAuth, requireCustomer, csrf)
	{
		meAPI.Get("/profile", presenter.ProfilePresenter.GetMyProfile)
		meAPI.Put("/profile", presenter.ProfilePresenter.UpdateMyProfile)
		meAPI.Post("/kyc", presenter.ProfilePresenter.SubmitKYC)
		meAPI.Get("/kyc", presenter.ProfilePresenter.GetKYCStatus)

		meAPI.Get("/applications", presenter.LoanPresenter.ListMyApplications)
		meAPI.Get("/applications/:id", presenter.LoanPresenter.GetApplication)
		meAPI.Get("/applications/:id/updates", presenter.LoanPresenter.GetStatusUpdates)

		meAPI.Get("/cart", presenter.OrderPresenter.GetCart)
		meAPI.Post("/cart", presenter.OrderPresenter.AddToCart)
		meAPI.Delete("/cart", presenter.OrderPresenter.ClearCart)
		meAPI.Put("/cart/:productId", presenter.OrderPresenter.UpdateCartItem)
		meAPI.Delete("/cart/:productId", presenter.OrderPresenter.RemoveFromCart)

		meAPI.Post("/orders", presenter.OrderPresenter.Checkout)
		meAPI.Get("/orders", presenter.OrderPresenter.ListMyOrders)
		meAPI.Get("/orders/:id", presenter.OrderPresenter.GetOrder)
	}

	// Quote and schedule are open; the group carries no middleware so the
	// protected routes below attach theirs per route.
	loansAPI := api.Group("/loans")
	{
		loansAPI.Post("/quote", presenter.LoanPresenter.Quote)
		loansAPI.Post("/schedule", presenter.LoanPresenter.Schedule)
		loansAPI.Post("/eligibility", jwtAuth, requireCustomer, csrf, presenter.LoanPresenter.CheckEligibility)
		loansAPI.Post("/applications", jwtAuth, requireCustomer, csrf, presenter.LoanPresenter.SubmitApplication)
	}

	lendersAPI := api.Group("/lenders")
	{
		lendersAPI.Get("/", presenter.CatalogPresenter.ListLenders)
		lendersAPI.Get("/search", presenter.CatalogPresenter.SearchLenders)
		lendersAPI.Get("/:id", presenter.CatalogPresenter.GetLender)
		lendersAPI.Get("/:id/reviews", presenter.CatalogPresenter.GetReviews)
		lendersAPI.Get("/:id/products", presenter.CatalogPresenter.GetLoanProducts)
	}

	productsAPI := api.Group("/products")
	{
		productsAPI.Get("/", presenter.CatalogPresenter.ListProducts)
		productsAPI.Get("/:id", presenter.CatalogPresenter.GetProduct)
	}

	adminAPI := api.Group("/admin", jwtAuth, requireAdmin, csrf)
	{
		adminAPI.Post("/customers/:id/kyc", presenter.AdminPresenter.VerifyCustomerKYC)
		adminAPI.Put("/applications/:id/status", presenter.AdminPresenter.UpdateApplicationStatus)
	}

	app.Use(func(c *fiber.Ctx) error {
		return common.ErrorResponse(c, fiber.StatusNotFound, "Resource not found: "+c.Path())
	})

	return app
}

func ErrorCustomHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		log.Error("Request error occurred",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status_code", code),
		)

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
			"code":    code,
		})
	}
}
