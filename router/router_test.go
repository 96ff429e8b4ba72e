package router_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/config"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/model"
	"github.com/fazamuttaqien/lendora/internal/testutil"
	"github.com/fazamuttaqien/lendora/middleware"
	"github.com/fazamuttaqien/lendora/pkg/password"
	"github.com/fazamuttaqien/lendora/pkg/ratelimiter"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"
	"github.com/fazamuttaqien/lendora/presenter"
	"github.com/fazamuttaqien/lendora/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionCookieName = "lendora_sid"

type RouterTestSuite struct {
	suite.Suite
	app *fiber.App
	db  *gorm.DB
}

func (suite *RouterTestSuite) SetupTest() {
	suite.db = testutil.SQLite(suite.T(), "router")
	_, rdb := testutil.Redis(suite.T())

	tel := &telemetry.OpenTelemetry{
		Log:            zap.NewNop(),
		TracerProvider: sdktrace.NewTracerProvider(),
		MeterProvider:  sdkmetric.NewMeterProvider(),
	}

	cfg := &config.Config{
		SERVICE_NAME:              "lendora",
		SERVICE_VERSION:           "test",
		ENVIRONMENT:               "test",
		REQUESTS_METRIC:           true,
		ALLOWED_ORIGINS:           "http://localhost:8081",
		JWT_SECRET_KEY:            "router-test-secret",
		JWT_TTL:                   time.Hour,
		CART_TTL:                  time.Hour,
		CLOUDINARY_FOLDER:         "test",
		AFFORDABILITY_RATIO:       0.4,
		MAX_LOAN_HAIRCUT:          0.8,
		VALIDATION_MODE:           "strict",
		ELIGIBILITY_RATE_PERCENT:  12,
		STORE_CREDIT_RATE_PERCENT: 18,
		DEFAULT_MONTHLY_INCOME:    30000,
		DEFAULT_MONTHLY_EXPENSES:  15000,
	}

	store := session.New(session.Config{KeyLookup: "cookie:" + sessionCookieName})

	p, err := presenter.NewPresenter(suite.db, rdb, nil, store, tel, cfg)
	require.NoError(suite.T(), err)

	limiter, err := ratelimiter.NewRateLimiter(rdb, 1000, 1000, time.Minute, zap.NewNop())
	require.NoError(suite.T(), err)

	suite.app = router.NewRouter(p, suite.db, tel, cfg, limiter, store)
}

func (suite *RouterTestSuite) do(req *http.Request) *http.Response {
	resp, err := suite.app.Test(req, -1)
	require.NoError(suite.T(), err)
	return resp
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	return nil
}

// login returns the JWT cookie for the account.
func (suite *RouterTestSuite) login(email, pass string) *http.Cookie {
	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": email, "password": pass}, ""))
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	cookie := cookieNamed(resp, middleware.SessionCookie)
	require.NotNil(suite.T(), cookie)
	return cookie
}

// csrf returns a CSRF token and the session cookie it is bound to.
func (suite *RouterTestSuite) csrf() (string, *http.Cookie) {
	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/api/v1/auth/csrf-token", nil, ""))
	sess := cookieNamed(resp, sessionCookieName)
	require.NotNil(suite.T(), sess)

	var body map[string]string
	testutil.Decode(suite.T(), resp, &body)
	return body["csrf_token"], sess
}

func (suite *RouterTestSuite) TestHealth() {
	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/health", nil, ""))
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var body map[string]string
	testutil.Decode(suite.T(), resp, &body)
	assert.Equal(suite.T(), "healthy", body["status"])
}

func (suite *RouterTestSuite) TestUnknownRoute() {
	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/api/v1/nowhere", nil, ""))
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
}

func (suite *RouterTestSuite) TestProtectedRoutesNeedToken() {
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/me/profile"},
		{http.MethodGet, "/api/v1/me/cart"},
		{http.MethodPost, "/api/v1/loans/eligibility"},
		{http.MethodPost, "/api/v1/loans/applications"},
		{http.MethodPut, "/api/v1/admin/applications/1/status"},
	} {
		resp := suite.do(testutil.JSONRequest(suite.T(), r.method, r.path, map[string]any{}, ""))
		resp.Body.Close()
		assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode, r.path)
	}
}

func (suite *RouterTestSuite) TestCustomerWritesNeedCSRFToken() {
	product := &model.Product{SKU: "TV-01", Name: "Television", Category: "electronics", Price: 400}
	require.NoError(suite.T(), suite.db.Create(product).Error)

	hashed, err := password.HashPasswordWithCost("secret1", 4)
	require.NoError(suite.T(), err)
	owner := testutil.Customer("tendai@example.com", "23456789")
	owner.Password = hashed
	owner.MonthlyIncome = 20000
	require.NoError(suite.T(), suite.db.Create(owner).Error)

	jwtCookie := suite.login("tendai@example.com", "secret1")
	_, sess := suite.csrf()

	for _, r := range []struct {
		method, path string
		body         map[string]any
	}{
		{http.MethodPut, "/api/v1/me/profile", map[string]any{"monthly_income": 999999}},
		{http.MethodPost, "/api/v1/me/cart", map[string]any{"product_id": product.ID, "quantity": 1}},
		{http.MethodDelete, "/api/v1/me/cart", nil},
		{http.MethodPost, "/api/v1/me/orders", map[string]any{"term_months": 6}},
		{http.MethodPost, "/api/v1/loans/eligibility", map[string]any{"amount": 1000, "term_months": 6}},
		{http.MethodPost, "/api/v1/loans/applications", map[string]any{"amount": 1000, "term_months": 6}},
		{http.MethodPost, "/api/v1/auth/logout", nil},
	} {
		resp := suite.do(testutil.JSONRequest(suite.T(), r.method, r.path, r.body, "", jwtCookie, sess))
		resp.Body.Close()
		assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode, r.method+" "+r.path)
	}

	var stored model.Customer
	require.NoError(suite.T(), suite.db.First(&stored, owner.ID).Error)
	assert.Equal(suite.T(), 20000.0, stored.MonthlyIncome)

	// Reads stay open without the header.
	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/api/v1/me/profile", nil, "", jwtCookie))
	resp.Body.Close()
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

func (suite *RouterTestSuite) TestLoanJourney() {
	lender := testutil.Lender("QC")
	require.NoError(suite.T(), suite.db.Create(lender).Error)

	hashed, err := password.HashPasswordWithCost("admin-pass", 4)
	require.NoError(suite.T(), err)
	admin := testutil.Customer("admin@lendora.local", "99999999")
	admin.Role = model.AdminRole
	admin.Password = hashed
	require.NoError(suite.T(), suite.db.Create(admin).Error)

	// Register and sign in.
	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":           "chipo@example.com",
		"password":        "secret1",
		"full_name":       "Chipo Dube",
		"national_id":     "632345678",
		"date_of_birth":   "1991-07-01",
		"phone":           "0772123456",
		"employment_type": "Civil Servant",
	}, ""))
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	var registered dto.CustomerResponse
	testutil.Decode(suite.T(), resp, &registered)

	customer := suite.login("chipo@example.com", "secret1")
	token, sess := suite.csrf()

	// Public quote.
	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/loans/quote",
		map[string]any{"lender_id": lender.ID, "amount": 100000, "term_months": 12}, ""))
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var quote dto.QuoteResponse
	testutil.Decode(suite.T(), resp, &quote)
	assert.Equal(suite.T(), 8885.0, quote.MonthlyPayment)

	application := map[string]any{
		"lender_id":        lender.ID,
		"amount":           100000,
		"term_months":      12,
		"purpose":          "School fees",
		"monthly_income":   40000,
		"monthly_expenses": 5000,
	}

	// Identity not verified yet.
	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/loans/applications", application, token, customer, sess))
	resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, resp.StatusCode)

	// Documents submitted out of band, then an admin verifies them.
	require.NoError(suite.T(), suite.db.Model(&model.Customer{}).
		Where("id = ?", registered.ID).Update("kyc_status", model.KYCPending).Error)

	adminJWT := suite.login("admin@lendora.local", "admin-pass")

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/admin/customers/"+itoa(registered.ID)+"/kyc",
		map[string]any{"status": "VERIFIED"}, token, adminJWT, sess))
	resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	// Customers cannot reach the admin surface.
	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/admin/customers/"+itoa(registered.ID)+"/kyc",
		map[string]any{"status": "VERIFIED"}, token, customer, sess))
	resp.Body.Close()
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/loans/applications", application, token, customer, sess))
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	var submitted dto.ApplicationResponse
	testutil.Decode(suite.T(), resp, &submitted)
	assert.Equal(suite.T(), "PENDING", submitted.Status)

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPut, "/api/v1/admin/applications/"+itoa(submitted.ID)+"/status",
		map[string]any{"status": "UNDER_REVIEW"}, token, adminJWT, sess))
	resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/api/v1/me/applications/"+itoa(submitted.ID)+"/updates", nil, "", customer))
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var updates []dto.StatusUpdateResponse
	testutil.Decode(suite.T(), resp, &updates)
	require.Len(suite.T(), updates, 2)
	assert.Equal(suite.T(), "UNDER_REVIEW", updates[0].Status)
}

func (suite *RouterTestSuite) TestStoreCreditJourney() {
	product := &model.Product{SKU: "FR-01", Name: "Fridge", Category: "appliances", Price: 900}
	require.NoError(suite.T(), suite.db.Create(product).Error)

	hashed, err := password.HashPasswordWithCost("secret1", 4)
	require.NoError(suite.T(), err)
	buyer := testutil.Customer("farai@example.com", "12345678")
	buyer.Password = hashed
	require.NoError(suite.T(), suite.db.Create(buyer).Error)

	jwtCookie := suite.login("farai@example.com", "secret1")
	token, sess := suite.csrf()

	resp := suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/me/cart",
		map[string]any{"product_id": product.ID, "quantity": 2}, token, jwtCookie, sess))
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var cart dto.CartResponse
	testutil.Decode(suite.T(), resp, &cart)
	assert.Equal(suite.T(), 1800.0, cart.Subtotal)

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodPost, "/api/v1/me/orders", map[string]any{
		"term_months":  6,
		"down_payment": 300,
		"bank": map[string]any{
			"bank_name":      "CBZ",
			"account_number": "40012345",
			"account_type":   "Savings",
		},
	}, token, jwtCookie, sess))
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	var order dto.OrderResponse
	testutil.Decode(suite.T(), resp, &order)
	assert.Equal(suite.T(), 1500.0, order.FinancedAmount)

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/api/v1/me/cart", nil, "", jwtCookie))
	testutil.Decode(suite.T(), resp, &cart)
	assert.Empty(suite.T(), cart.Items)

	resp = suite.do(testutil.JSONRequest(suite.T(), http.MethodGet, "/api/v1/me/orders/"+order.ID, nil, "", jwtCookie))
	resp.Body.Close()
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
