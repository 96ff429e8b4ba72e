package cataloghandler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/dto"
	"github.com/fazamuttaqien/lendora/internal/handler"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	obs            *handler.Observer
}

func NewCatalogHandler(
	catalogService service.CatalogService,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		obs:            handler.NewObserver(meter, tracer, log),
	}
}

func lenderKind(c *fiber.Ctx) (domain.LenderKind, bool) {
	switch kind := domain.LenderKind(strings.ToUpper(c.Query("kind"))); kind {
	case "", domain.LenderCompany, domain.LenderBank:
		return kind, true
	default:
		return kind, false
	}
}

// ListLenders accepts optional kind (COMPANY or BANK) and category filters.
func (h *CatalogHandler) ListLenders(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.ListLenders")
	defer span.End()

	kind, ok := lenderKind(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("unknown lender kind"),
			fiber.StatusBadRequest, "invalid_kind", "kind must be COMPANY or BANK")
	}
	category := c.Query("category")

	span.SetAttributes(
		attribute.String("lender.kind", string(kind)),
		attribute.String("lender.category", category),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	lenders, err := h.catalogService.ListLenders(serviceCtx, kind, category)
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to list lenders")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.LendersFromEntity(lenders),
		zap.Int("lenders", len(lenders)))
}

func (h *CatalogHandler) SearchLenders(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.SearchLenders")
	defer span.End()

	kind, ok := lenderKind(c)
	if !ok {
		return h.obs.RecordError(ctx, span, c, start, errors.New("unknown lender kind"),
			fiber.StatusBadRequest, "invalid_kind", "kind must be COMPANY or BANK")
	}
	query := strings.TrimSpace(c.Query("q"))

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	lenders, err := h.catalogService.SearchLenders(serviceCtx, query, kind)
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to search lenders")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.LendersFromEntity(lenders),
		zap.String("query", query),
		zap.Int("lenders", len(lenders)),
	)
}

func (h *CatalogHandler) GetLender(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetLender")
	defer span.End()

	lenderID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid lender ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	lender, err := h.catalogService.GetLender(serviceCtx, lenderID)
	if err != nil {
		return h.lenderError(ctx, span, c, start, err, "Failed to retrieve lender")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.LenderFromEntity(lender),
		zap.Uint64("lender_id", lenderID))
}

func (h *CatalogHandler) GetReviews(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetReviews")
	defer span.End()

	lenderID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid lender ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	reviews, err := h.catalogService.GetReviews(serviceCtx, lenderID)
	if err != nil {
		return h.lenderError(ctx, span, c, start, err, "Failed to retrieve reviews")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.ReviewsFromEntity(reviews),
		zap.Int("reviews", len(reviews)))
}

func (h *CatalogHandler) GetLoanProducts(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetLoanProducts")
	defer span.End()

	lenderID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid lender ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	products, err := h.catalogService.GetLoanProducts(serviceCtx, lenderID)
	if err != nil {
		return h.lenderError(ctx, span, c, start, err, "Failed to retrieve loan products")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.LoanProductsFromEntity(products),
		zap.Int("loan_products", len(products)))
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.ListProducts")
	defer span.End()

	category := c.Query("category")
	query := strings.TrimSpace(c.Query("q"))

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	products, err := h.catalogService.ListProducts(serviceCtx, category, query)
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to list products")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.ProductsFromEntity(products),
		zap.Int("products", len(products)))
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	ctx, span, start := h.obs.Start(c, "handler.GetProduct")
	defer span.End()

	productID, err := handler.ParamID(c, "id")
	if err != nil {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusBadRequest, "invalid_id", "Invalid product ID")
	}

	serviceCtx, cancel := context.WithTimeout(ctx, handler.ServiceTimeout)
	defer cancel()

	product, err := h.catalogService.GetProduct(serviceCtx, productID)
	if err != nil {
		if errors.Is(err, common.ErrProductNotFound) {
			return h.obs.RecordError(ctx, span, c, start, err,
				fiber.StatusNotFound, "product_not_found", "Product not found")
		}
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Failed to retrieve product")
	}

	return h.obs.RecordSuccess(ctx, span, c, start, fiber.StatusOK, dto.ProductFromEntity(product),
		zap.Uint64("product_id", productID))
}

func (h *CatalogHandler) lenderError(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error, message string) error {
	if errors.Is(err, common.ErrLenderNotFound) {
		return h.obs.RecordError(ctx, span, c, start, err,
			fiber.StatusNotFound, "lender_not_found", "Lender not found")
	}
	return h.obs.RecordError(ctx, span, c, start, err,
		fiber.StatusInternalServerError, "service_error", message)
}
