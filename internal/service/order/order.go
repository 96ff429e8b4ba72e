package ordersrv

import (
	"context"
	"strings"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const orderIDPrefix = "ord_"

type orderService struct {
	cartRepository    repository.CartRepository
	productRepository repository.ProductRepository
	orderRepository   repository.OrderRepository

	calc             loancalc.Calculator
	storeRatePercent float64
	now              func() time.Time

	rec           *telemetry.Recorder
	ordersCreated metric.Int64Counter
	orderValue    metric.Float64Histogram
}

func buildCart(customerID uint64, items []domain.CartItem) *domain.Cart {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}

	if items == nil {
		items = []domain.CartItem{}
	}

	return &domain.Cart{
		CustomerID: customerID,
		Items:      items,
		Subtotal:   subtotal.Round(2).InexactFloat64(),
		ItemCount:  count,
	}
}

func (o *orderService) readCart(ctx context.Context, op *telemetry.Operation, customerID uint64) (*domain.Cart, error) {
	items, err := o.cartRepository.Get(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to read cart")
	}
	return buildCart(customerID, items), nil
}

// GetCart implements service.OrderService.
func (o *orderService) GetCart(ctx context.Context, customerID uint64) (*domain.Cart, error) {
	ctx, op := o.rec.Start(ctx, "GetCart", "get_cart",
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	cart, err := o.readCart(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	op.Succeed("Cart retrieved", zap.Int("items", len(cart.Items)))

	return cart, nil
}

// AddToCart implements service.OrderService. Adding a product already in the
// cart increases its quantity.
func (o *orderService) AddToCart(ctx context.Context, customerID, productID uint64, quantity int) (*domain.Cart, error) {
	ctx, op := o.rec.Start(ctx, "AddToCart", "add_to_cart",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("product.id", int64(productID)),
		attribute.Int("cart.quantity", quantity),
	)
	defer op.End()

	if quantity <= 0 {
		return nil, op.Reject(common.ErrInvalidQuantity, "invalid_quantity", "Quantity must be positive")
	}

	product, err := o.productRepository.FindByID(ctx, productID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch product")
	}
	if product == nil {
		return nil, op.Reject(common.ErrProductNotFound, "product_not_found", "Product not found",
			zap.Uint64("product_id", productID))
	}

	existing, err := o.cartRepository.GetItem(ctx, customerID, productID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to read cart item")
	}
	if existing != nil {
		quantity += existing.Quantity
	}

	item := domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	}
	if err := o.cartRepository.SetItem(ctx, customerID, item); err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to write cart item")
	}

	cart, err := o.readCart(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	op.Succeed("Item added to cart",
		zap.Uint64("product_id", productID),
		zap.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateCartItem implements service.OrderService. A quantity of zero removes
// the item.
func (o *orderService) UpdateCartItem(ctx context.Context, customerID, productID uint64, quantity int) (*domain.Cart, error) {
	ctx, op := o.rec.Start(ctx, "UpdateCartItem", "update_cart_item",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("product.id", int64(productID)),
		attribute.Int("cart.quantity", quantity),
	)
	defer op.End()

	if quantity < 0 {
		return nil, op.Reject(common.ErrInvalidQuantity, "invalid_quantity", "Quantity must not be negative")
	}

	existing, err := o.cartRepository.GetItem(ctx, customerID, productID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to read cart item")
	}
	if existing == nil {
		return nil, op.Reject(common.ErrProductNotFound, "item_not_in_cart", "Product is not in the cart",
			zap.Uint64("product_id", productID))
	}

	if quantity == 0 {
		err = o.cartRepository.RemoveItem(ctx, customerID, productID)
	} else {
		existing.Quantity = quantity
		err = o.cartRepository.SetItem(ctx, customerID, *existing)
	}
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to update cart item")
	}

	cart, err := o.readCart(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	op.Succeed("Cart item updated", zap.Uint64("product_id", productID), zap.Int("quantity", quantity))

	return cart, nil
}

// RemoveFromCart implements service.OrderService.
func (o *orderService) RemoveFromCart(ctx context.Context, customerID, productID uint64) (*domain.Cart, error) {
	ctx, op := o.rec.Start(ctx, "RemoveFromCart", "remove_from_cart",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("product.id", int64(productID)),
	)
	defer op.End()

	if err := o.cartRepository.RemoveItem(ctx, customerID, productID); err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to remove cart item")
	}

	cart, err := o.readCart(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	op.Succeed("Item removed from cart", zap.Uint64("product_id", productID))

	return cart, nil
}

// ClearCart implements service.OrderService.
func (o *orderService) ClearCart(ctx context.Context, customerID uint64) error {
	ctx, op := o.rec.Start(ctx, "ClearCart", "clear_cart",
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	if err := o.cartRepository.Clear(ctx, customerID); err != nil {
		return op.Fail(err, "repository_error", "Failed to clear cart")
	}

	op.Succeed("Cart cleared", zap.Uint64("customer_id", customerID))

	return nil
}

// Checkout implements service.OrderService. Lines are re-priced from the
// product table; products that disappeared since they were carted are
// dropped.
func (o *orderService) Checkout(ctx context.Context, customerID uint64, req dto.CheckoutRequest) (*domain.CreditOrder, error) {
	ctx, op := o.rec.Start(ctx, "Checkout", "checkout",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("order.term_months", req.TermMonths),
	)
	defer op.End()

	if !domain.IsAllowedTerm(req.TermMonths) {
		return nil, op.Reject(common.ErrTermOutOfRange, "term_out_of_range", "Repayment term not offered",
			zap.Int("term_months", req.TermMonths))
	}

	carted, err := o.cartRepository.Get(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to read cart")
	}

	ids := make([]uint64, 0, len(carted))
	for _, item := range carted {
		ids = append(ids, item.ProductID)
	}

	var products []domain.Product
	if len(ids) > 0 {
		products, err = o.productRepository.FindByIDs(ctx, ids)
		if err != nil {
			return nil, op.Fail(err, "repository_error", "Failed to price cart")
		}
	}

	byID := make(map[uint64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(carted))
	subtotal := decimal.Zero
	for _, item := range carted {
		product, ok := byID[item.ProductID]
		if !ok || item.Quantity <= 0 {
			continue
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
		subtotal = subtotal.Add(decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if len(items) == 0 {
		return nil, op.Reject(common.ErrEmptyCart, "empty_cart", "Cart is empty")
	}

	downPayment := decimal.NewFromFloat(req.DownPayment)
	if downPayment.GreaterThan(subtotal) {
		return nil, op.Reject(common.ErrDownPaymentTooLarge, "down_payment_too_large", "Down payment exceeds subtotal",
			zap.Float64("down_payment", req.DownPayment),
			zap.Float64("subtotal", subtotal.InexactFloat64()),
		)
	}
	financed := subtotal.Sub(downPayment).Round(2).InexactFloat64()

	// A fully paid-up order has nothing left to amortize.
	var installment float64
	if financed > 0 {
		q, err := o.calc.Quote(loancalc.LoanRequest{
			Principal:         financed,
			AnnualRatePercent: o.storeRatePercent,
			TermMonths:        req.TermMonths,
		})
		if err != nil {
			return nil, op.Reject(err, "invalid_argument", "Credit terms rejected")
		}
		installment = q.EMI
	}

	order := &domain.CreditOrder{
		ID:                  orderIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		CustomerID:          customerID,
		Subtotal:            subtotal.Round(2).InexactFloat64(),
		DownPayment:         req.DownPayment,
		FinancedAmount:      financed,
		TermMonths:          req.TermMonths,
		InterestRatePercent: o.storeRatePercent,
		MonthlyInstallment:  installment,
		AnnualIncome:        req.AnnualIncome,
		CreditHistory:       strings.TrimSpace(req.CreditHistory),
		Status:              domain.OrderPending,
		Bank:                req.Bank.ToEntity(),
		CreatedAt:           o.now(),
		Items:               items,
	}

	created, err := o.orderRepository.Create(ctx, order)
	if err != nil {
		return nil, op.Fail(err, "create_failed", "Failed to store credit order")
	}

	// The order stands even if the cart could not be emptied.
	if err := o.cartRepository.Clear(ctx, customerID); err != nil {
		o.rec.Log().Warn("Failed to clear cart after checkout",
			zap.Uint64("customer_id", customerID),
			zap.String("order_id", created.ID),
			zap.Error(err),
		)
	}

	o.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.Int("term_months", req.TermMonths)))
	o.orderValue.Record(ctx, created.Subtotal)
	op.Span().SetAttributes(attribute.String("order.id", created.ID))
	op.Succeed("Credit order placed",
		zap.String("order_id", created.ID),
		zap.Float64("financed_amount", financed),
		zap.Float64("monthly_installment", installment),
	)

	return created, nil
}

// ListMyOrders implements service.OrderService.
func (o *orderService) ListMyOrders(ctx context.Context, customerID uint64) ([]domain.CreditOrder, error) {
	ctx, op := o.rec.Start(ctx, "ListMyOrders", "list_orders",
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	orders, err := o.orderRepository.FindAllByCustomerID(ctx, customerID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch orders")
	}

	op.Succeed("Orders retrieved", zap.Int("count", len(orders)))

	return orders, nil
}

// GetOrder implements service.OrderService.
func (o *orderService) GetOrder(ctx context.Context, customerID uint64, orderID string) (*domain.CreditOrder, error) {
	ctx, op := o.rec.Start(ctx, "GetOrder", "get_order",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("order.id", orderID),
	)
	defer op.End()

	order, err := o.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch order")
	}
	if order == nil || order.CustomerID != customerID {
		return nil, op.Reject(common.ErrOrderNotFound, "order_not_found", "Order not found",
			zap.String("order_id", orderID))
	}

	op.Succeed("Order retrieved", zap.String("status", string(order.Status)))

	return order, nil
}

func NewOrderService(
	cartRepository repository.CartRepository,
	productRepository repository.ProductRepository,
	orderRepository repository.OrderRepository,
	calc loancalc.Calculator,
	storeCreditRatePercent float64,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.OrderService {
	ordersCreated, _ := meter.Int64Counter(
		"orders.created",
		metric.WithDescription("Number of credit orders placed"),
		metric.WithUnit("{order}"),
	)

	orderValue, _ := meter.Float64Histogram(
		"orders.subtotal",
		metric.WithDescription("Subtotal of credit orders"),
		metric.WithUnit("{currency}"),
	)

	return &orderService{
		cartRepository:    cartRepository,
		productRepository: productRepository,
		orderRepository:   orderRepository,

		calc:             calc,
		storeRatePercent: storeCreditRatePercent,
		now:              func() time.Time { return time.Now().UTC() },

		rec:           telemetry.NewRecorder(telemetry.ServiceLayer, "order", meter, tracer, log),
		ordersCreated: ordersCreated,
		orderValue:    orderValue,
	}
}
