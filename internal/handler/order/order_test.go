package orderhandler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	orderhandler "github.com/fazamuttaqien/lendora/internal/handler/order"
	"github.com/fazamuttaqien/lendora/internal/testutil"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockOrderService struct {
	MockCart      *domain.Cart
	MockOrder     *domain.CreditOrder
	MockOrders    []domain.CreditOrder
	MockError     error
	LastProductID uint64
	LastQuantity  int
	LastCheckout  dto.CheckoutRequest
	LastOrderID   string
	Cleared       bool
}

func (m *MockOrderService) GetCart(ctx context.Context, customerID uint64) (*domain.Cart, error) {
	return m.MockCart, m.MockError
}

func (m *MockOrderService) AddToCart(ctx context.Context, customerID, productID uint64, quantity int) (*domain.Cart, error) {
	m.LastProductID, m.LastQuantity = productID, quantity
	return m.MockCart, m.MockError
}

func (m *MockOrderService) UpdateCartItem(ctx context.Context, customerID, productID uint64, quantity int) (*domain.Cart, error) {
	m.LastProductID, m.LastQuantity = productID, quantity
	return m.MockCart, m.MockError
}

func (m *MockOrderService) RemoveFromCart(ctx context.Context, customerID, productID uint64) (*domain.Cart, error) {
	m.LastProductID = productID
	return m.MockCart, m.MockError
}

func (m *MockOrderService) ClearCart(ctx context.Context, customerID uint64) error {
	m.Cleared = m.MockError == nil
	return m.MockError
}

func (m *MockOrderService) Checkout(ctx context.Context, customerID uint64, req dto.CheckoutRequest) (*domain.CreditOrder, error) {
	m.LastCheckout = req
	return m.MockOrder, m.MockError
}

func (m *MockOrderService) ListMyOrders(ctx context.Context, customerID uint64) ([]domain.CreditOrder, error) {
	return m.MockOrders, m.MockError
}

func (m *MockOrderService) GetOrder(ctx context.Context, customerID uint64, orderID string) (*domain.CreditOrder, error) {
	m.LastOrderID = orderID
	return m.MockOrder, m.MockError
}

type OrderHandlerTestSuite struct {
	suite.Suite
	app         *fiber.App
	mockService *MockOrderService
}

func (suite *OrderHandlerTestSuite) SetupTest() {
	suite.mockService = &MockOrderService{}
	meter, tracer, log := testutil.Telemetry("order-handler")
	h := orderhandler.NewOrderHandler(suite.mockService, meter, tracer, log)

	authMiddleware := func(c *fiber.Ctx) error {
		c.Locals("customerID", uint64(4))
		return c.Next()
	}

	app := fiber.New()
	me := app.Group("/me", authMiddleware)
	me.Get("/cart", h.GetCart)
	me.Post("/cart", h.AddToCart)
	me.Delete("/cart", h.ClearCart)
	me.Put("/cart/:productId", h.UpdateCartItem)
	me.Delete("/cart/:productId", h.RemoveFromCart)
	me.Post("/orders", h.Checkout)
	me.Get("/orders", h.ListMyOrders)
	me.Get("/orders/:id", h.GetOrder)

	app.Get("/anonymous/cart", h.GetCart)

	suite.app = app
}

func (suite *OrderHandlerTestSuite) do(method, url string, body any) *http.Response {
	resp, err := suite.app.Test(testutil.JSONRequest(suite.T(), method, url, body, ""))
	require.NoError(suite.T(), err)
	return resp
}

func (suite *OrderHandlerTestSuite) cart() *domain.Cart {
	return &domain.Cart{
		CustomerID: 4,
		Items:      []domain.CartItem{{ProductID: 1, Name: "Fridge", Price: 950.5, Quantity: 2}},
		Subtotal:   1901,
		ItemCount:  2,
	}
}

func (suite *OrderHandlerTestSuite) TestCart() {
	suite.Run("Get", func() {
		suite.mockService.MockCart = suite.cart()

		resp := suite.do(http.MethodGet, "/me/cart", nil)
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

		var res dto.CartResponse
		testutil.Decode(suite.T(), resp, &res)
		require.Len(suite.T(), res.Items, 1)
		assert.Equal(suite.T(), 1901.0, res.Items[0].LineTotal)
		assert.Equal(suite.T(), 1901.0, res.Subtotal)
	})

	suite.Run("Unauthenticated", func() {
		resp := suite.do(http.MethodGet, "/anonymous/cart", nil)
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
	})

	suite.Run("Add", func() {
		suite.mockService.MockError = nil
		resp := suite.do(http.MethodPost, "/me/cart", map[string]any{"product_id": 1, "quantity": 2})
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		assert.Equal(suite.T(), uint64(1), suite.mockService.LastProductID)
		assert.Equal(suite.T(), 2, suite.mockService.LastQuantity)
	})

	suite.Run("Add Zero Quantity", func() {
		resp := suite.do(http.MethodPost, "/me/cart", map[string]any{"product_id": 1, "quantity": 0})
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	})

	suite.Run("Add Unknown Product", func() {
		suite.mockService.MockError = common.ErrProductNotFound
		resp := suite.do(http.MethodPost, "/me/cart", map[string]any{"product_id": 99, "quantity": 1})
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	})

	suite.Run("Update To Zero", func() {
		suite.mockService.MockError = nil
		suite.mockService.MockCart = &domain.Cart{CustomerID: 4}
		resp := suite.do(http.MethodPut, "/me/cart/1", map[string]any{"quantity": 0})
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		assert.Equal(suite.T(), 0, suite.mockService.LastQuantity)
	})

	suite.Run("Remove", func() {
		resp := suite.do(http.MethodDelete, "/me/cart/1", nil)
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	})

	suite.Run("Clear", func() {
		resp := suite.do(http.MethodDelete, "/me/cart", nil)
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		assert.True(suite.T(), suite.mockService.Cleared)
	})
}

func (suite *OrderHandlerTestSuite) TestCheckout() {
	body := map[string]any{
		"term_months":  6,
		"down_payment": 100,
		"bank": map[string]any{
			"bank_name":      "CBZ",
			"account_number": "12345678",
			"account_type":   "Savings",
		},
	}

	suite.Run("Created", func() {
		suite.mockService.MockError = nil
		suite.mockService.MockOrder = &domain.CreditOrder{
			ID:                 "ord_1a2b3c4d",
			Subtotal:           2000,
			DownPayment:        100,
			FinancedAmount:     1900,
			TermMonths:         6,
			MonthlyInstallment: 333,
			Status:             domain.OrderPending,
			Bank:               domain.BankDetails{BankName: "CBZ", AccountNumber: "12345678", AccountType: "Savings"},
			CreatedAt:          time.Now(),
		}

		resp := suite.do(http.MethodPost, "/me/orders", body)
		assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

		var res dto.OrderResponse
		testutil.Decode(suite.T(), resp, &res)
		assert.Equal(suite.T(), "ord_1a2b3c4d", res.ID)
		assert.Equal(suite.T(), 333.0, res.MonthlyInstallment)
		assert.Equal(suite.T(), "CBZ", suite.mockService.LastCheckout.Bank.BankName)
	})

	suite.Run("Missing Bank Details", func() {
		resp := suite.do(http.MethodPost, "/me/orders", map[string]any{"term_months": 6})
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	})

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"Empty Cart", common.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"Down Payment Too Large", common.ErrDownPaymentTooLarge, http.StatusUnprocessableEntity},
		{"Term Not Offered", common.ErrTermOutOfRange, http.StatusUnprocessableEntity},
		{"Unexpected", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			suite.mockService.MockError = tc.err
			resp := suite.do(http.MethodPost, "/me/orders", body)
			defer resp.Body.Close()
			assert.Equal(suite.T(), tc.status, resp.StatusCode)
		})
	}
}

func (suite *OrderHandlerTestSuite) TestOrders() {
	suite.Run("List", func() {
		suite.mockService.MockOrders = []domain.CreditOrder{{ID: "ord_a"}, {ID: "ord_b"}}
		resp := suite.do(http.MethodGet, "/me/orders", nil)
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

		var res []dto.OrderResponse
		testutil.Decode(suite.T(), resp, &res)
		assert.Len(suite.T(), res, 2)
	})

	suite.Run("Get", func() {
		suite.mockService.MockOrder = &domain.CreditOrder{ID: "ord_a"}
		resp := suite.do(http.MethodGet, "/me/orders/ord_a", nil)
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		assert.Equal(suite.T(), "ord_a", suite.mockService.LastOrderID)
	})

	suite.Run("Other Customer's Order", func() {
		suite.mockService.MockError = common.ErrOrderNotFound
		resp := suite.do(http.MethodGet, "/me/orders/ord_x", nil)
		defer resp.Body.Close()
		assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	})
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}
