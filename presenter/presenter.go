package presenter

import (
	"fmt"

	"github.com/fazamuttaqien/lendora/config"
	adminhandler "github.com/fazamuttaqien/lendora/internal/handler/admin"
	cataloghandler "github.com/fazamuttaqien/lendora/internal/handler/catalog"
	loanhandler "github.com/fazamuttaqien/lendora/internal/handler/loan"
	orderhandler "github.com/fazamuttaqien/lendora/internal/handler/order"
	privatehandler "github.com/fazamuttaqien/lendora/internal/handler/private"
	profilehandler "github.com/fazamuttaqien/lendora/internal/handler/profile"
	"github.com/fazamuttaqien/lendora/internal/repository"
	applicationrepo "github.com/fazamuttaqien/lendora/internal/repository/application"
	cartrepo "github.com/fazamuttaqien/lendora/internal/repository/cart"
	customerrepo "github.com/fazamuttaqien/lendora/internal/repository/customer"
	lenderrepo "github.com/fazamuttaqien/lendora/internal/repository/lender"
	orderrepo "github.com/fazamuttaqien/lendora/internal/repository/order"
	productrepo "github.com/fazamuttaqien/lendora/internal/repository/product"
	"github.com/fazamuttaqien/lendora/internal/service"
	catalogsrv "github.com/fazamuttaqien/lendora/internal/service/catalog"
	cloudinarysrv "github.com/fazamuttaqien/lendora/internal/service/cloudinary"
	loansrv "github.com/fazamuttaqien/lendora/internal/service/loan"
	ordersrv "github.com/fazamuttaqien/lendora/internal/service/order"
	privatesrv "github.com/fazamuttaqien/lendora/internal/service/private"
	profilesrv "github.com/fazamuttaqien/lendora/internal/service/profile"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"
	"github.com/fazamuttaqien/lendora/pkg/payslip"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Presenter struct {
	AdminPresenter   *adminhandler.AdminHandler
	CatalogPresenter *cataloghandler.CatalogHandler
	LoanPresenter    *loanhandler.LoanHandler
	OrderPresenter   *orderhandler.OrderHandler
	PrivatePresenter *privatehandler.PrivateHandler
	ProfilePresenter *profilehandler.ProfileHandler

	// Used at startup to seed the catalog and the admin account.
	CatalogService     service.CatalogService
	CustomerRepository repository.CustomerRepository
}

func NewPresenter(
	db *gorm.DB,
	rdb *redis.Client,
	cld *cloudinary.Cloudinary,
	store *session.Store,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
) (Presenter, error) {
	policy, err := cfg.LendingPolicy()
	if err != nil {
		return Presenter{}, fmt.Errorf("failed to build lending policy: %w", err)
	}
	calc := loancalc.New(policy)

	// Repository
	customerRepository := customerrepo.NewCustomerRepository(
		db,
		tel.Meter("customer-repository"),
		tel.Tracer("customer-repository"),
		tel.Log,
	)

	lenderRepository := lenderrepo.NewLenderRepository(
		db,
		tel.Meter("lender-repository"),
		tel.Tracer("lender-repository"),
		tel.Log,
	)

	productRepository := productrepo.NewProductRepository(
		db,
		tel.Meter("product-repository"),
		tel.Tracer("product-repository"),
		tel.Log,
	)

	applicationRepository := applicationrepo.NewApplicationRepository(
		db,
		tel.Meter("application-repository"),
		tel.Tracer("application-repository"),
		tel.Log,
	)

	orderRepository := orderrepo.NewOrderRepository(
		db,
		tel.Meter("order-repository"),
		tel.Tracer("order-repository"),
		tel.Log,
	)

	cartRepository := cartrepo.NewCartRepository(
		rdb,
		cfg.CART_TTL,
		tel.Meter("cart-repository"),
		tel.Tracer("cart-repository"),
		tel.Log,
	)

	// Service
	profileService := profilesrv.NewProfileService(
		customerRepository,
		payslip.NewParser(),
		tel.Meter("profile-service"),
		tel.Tracer("profile-service"),
		tel.Log,
	)

	privateService := privatesrv.NewPrivateService(
		cfg.JWT_SECRET_KEY,
		cfg.JWT_TTL,
		customerRepository,
		tel.Meter("private-service"),
		tel.Tracer("private-service"),
		tel.Log,
	)

	loanService := loansrv.NewLoanService(
		lenderRepository,
		applicationRepository,
		customerRepository,
		calc,
		loansrv.Settings{
			EligibilityRatePercent: cfg.ELIGIBILITY_RATE_PERCENT,
			DefaultMonthlyIncome:   cfg.DEFAULT_MONTHLY_INCOME,
			DefaultMonthlyExpenses: cfg.DEFAULT_MONTHLY_EXPENSES,
		},
		tel.Meter("loan-service"),
		tel.Tracer("loan-service"),
		tel.Log,
	)

	catalogService := catalogsrv.NewCatalogService(
		lenderRepository,
		productRepository,
		tel.Meter("catalog-service"),
		tel.Tracer("catalog-service"),
		tel.Log,
	)

	orderService := ordersrv.NewOrderService(
		cartRepository,
		productRepository,
		orderRepository,
		calc,
		cfg.STORE_CREDIT_RATE_PERCENT,
		tel.Meter("order-service"),
		tel.Tracer("order-service"),
		tel.Log,
	)

	cloudinaryService := cloudinarysrv.NewCloudinaryService(
		cld,
		tel.Meter("cloudinary-service"),
		tel.Tracer("cloudinary-service"),
		tel.Log,
	)

	// Handler
	adminHandler := adminhandler.NewAdminHandler(
		profileService,
		loanService,
		tel.Meter("admin-handler"),
		tel.Tracer("admin-handler"),
		tel.Log,
	)

	catalogHandler := cataloghandler.NewCatalogHandler(
		catalogService,
		tel.Meter("catalog-handler"),
		tel.Tracer("catalog-handler"),
		tel.Log,
	)

	loanHandler := loanhandler.NewLoanHandler(
		loanService,
		tel.Meter("loan-handler"),
		tel.Tracer("loan-handler"),
		tel.Log,
	)

	orderHandler := orderhandler.NewOrderHandler(
		orderService,
		tel.Meter("order-handler"),
		tel.Tracer("order-handler"),
		tel.Log,
	)

	privateHandler := privatehandler.NewPrivateHandler(
		privateService,
		store,
		!cfg.DEVELOPMENT_MODE,
		tel.Meter("private-handler"),
		tel.Tracer("private-handler"),
		tel.Log,
	)

	profileHandler := profilehandler.NewProfileHandler(
		profileService,
		cloudinaryService,
		cfg.CLOUDINARY_FOLDER,
		tel.Meter("profile-handler"),
		tel.Tracer("profile-handler"),
		tel.Log,
	)

	return Presenter{
		AdminPresenter:     adminHandler,
		CatalogPresenter:   catalogHandler,
		LoanPresenter:      loanHandler,
		OrderPresenter:     orderHandler,
		PrivatePresenter:   privateHandler,
		ProfilePresenter:   profileHandler,
		CatalogService:     catalogService,
		CustomerRepository: customerRepository,
	}, nil
}
