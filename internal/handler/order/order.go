package orderhandler

import (
	"context"
	"errors"
	"time"

	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/handler"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService service.OrderService
	validate     *validator.Validate
	obs          *handler.Observer
}

func NewOrderHandler(
	orderService service.OrderService,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validate:     dto.NewValidator(),
		obs:          handler.NewObserver(meter, tracer, log),
	}
}

func (h *OrderHandler) fail(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error, message string) error {
	switch {
	case errors.Is(err, common.ErrProductNotFound):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusNotFound, "product_not_found", "Product not found")
	case errors.Is(err, common.ErrOrderNotFound):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, common.ErrInvalidQuantity):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_quantity", "Quantity must be positive")
	case errors.Is(err, common.ErrEmptyCart):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusUnprocessableEntity, "empty_cart", "Cart is empty")
	case errors.Is(err, common.ErrDownPaymentTooLarge):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusUnprocessableEntity, "down_payment_too_large", "Down payment exceeds order subtotal")
	case errors.Is(err, common.ErrTermOutOfRange):
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusUnprocessableEntity, "term_out_of_range", "Repayment term is not offered")
	default:
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", message)
	}
}

func (h *OrderHandler) GetCart(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetCart")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	cart, err := h.orderService.GetCart(serviceCtx, customerID)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to retrieve cart")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.CartFromEntity(cart),
		zap.Int("item_count", cart.ItemCount))
}

func (h *OrderHandler) AddToCart(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.AddToCart")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	var req dto.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(
		attribute.Int64("product.id", int64(req.ProductID)),
		attribute.Int("cart.quantity", req.Quantity),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	cart, err := h.orderService.AddToCart(serviceCtx, customerID, req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to add item to cart")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.CartFromEntity(cart),
		zap.Uint64("product_id", req.ProductID))
}

// UpdateCartItem sets the quantity of a line; zero removes it.
func (h *OrderHandler) UpdateCartItem(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.UpdateCartItem")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	productID, err := handler.ParamID(c, "productId")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid product ID")
	}

	var req dto.CartQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	cart, err := h.orderService.UpdateCartItem(serviceCtx, customerID, productID, req.Quantity)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to update cart item")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.CartFromEntity(cart),
		zap.Uint64("product_id", productID),
		zap.Int("quantity", req.Quantity),
	)
}

func (h *OrderHandler) RemoveFromCart(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.RemoveFromCart")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	productID, err := handler.ParamID(c, "productId")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid product ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	cart, err := h.orderService.RemoveFromCart(serviceCtx, customerID, productID)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to remove cart item")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.CartFromEntity(cart),
		zap.Uint64("product_id", productID))
}

func (h *OrderHandler) ClearCart(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.ClearCart")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	if err := h.orderService.ClearCart(serviceCtx, customerID); err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to clear cart")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.MessageResponse{Message: "Cart cleared"})
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.Checkout")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(
		attribute.Int("order.term_months", req.TermMonths),
		attribute.Float64("order.down_payment", req.DownPayment),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	order, err := h.orderService.Checkout(serviceCtx, customerID, req)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to place order")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusCreated, dto.OrderFromEntity(order),
		zap.String("order_id", order.ID),
		zap.Float64("financed_amount", order.FinancedAmount),
	)
}

func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.ListMyOrders")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	orders, err := h.orderService.ListMyOrders(serviceCtx, customerID)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to list orders")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.OrdersFromEntity(orders),
		zap.Int("orders", len(orders)))
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetOrder")
	defer span.End()

	customerID, ok := handler.CustomerID(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("missing customer id"),
			fiber.StatusUnauthorized, "unauthorized", "Unauthorized")
	}

	orderID := c.Params("id")
	if orderID == "" {
		return h.obs.RecordError(ctx, span, c, start, errors.New("empty order id"),
			fiber.StatusBadRequest, "invalid_id", "Invalid order ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	order, err := h.orderService.GetOrder(serviceCtx, customerID, orderID)
	if err != nil {
		return h.fail(ctx, span, c, start, err, "Failed to retrieve order")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.OrderFromEntity(order),
		zap.String("order_id", orderID))
}
