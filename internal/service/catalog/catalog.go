package catalogsrv

import (
	"context"
	"fmt"
	"strings"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/internal/service"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type catalogService struct {
	lenderRepository  repository.LenderRepository
	productRepository repository.ProductRepository

	rec *telemetry.Recorder
}

// ListLenders implements service.CatalogService. An empty kind lists both
// banks and companies; a category narrows the list to lenders with that
// specialty.
func (s *catalogService) ListLenders(ctx context.Context, kind domain.LenderKind, category string) ([]domain.Lender, error) {
	ctx, op := s.rec.Start(ctx, "ListLenders", "list_lenders",
		attribute.String("lender.kind", string(kind)),
		attribute.String("lender.category", category),
	)
	defer op.End()

	var (
		lenders []domain.Lender
		err     error
	)
	if category = strings.TrimSpace(category); category != "" {
		lenders, err = s.lenderRepository.FindByCategory(ctx, category, kind)
	} else {
		lenders, err = s.lenderRepository.FindAll(ctx, kind)
	}
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch lenders")
	}

	op.Succeed("Lenders retrieved", zap.Int("count", len(lenders)))

	return lenders, nil
}

// SearchLenders implements service.CatalogService.
func (s *catalogService) SearchLenders(ctx context.Context, query string, kind domain.LenderKind) ([]domain.Lender, error) {
	ctx, op := s.rec.Start(ctx, "SearchLenders", "search_lenders",
		attribute.String("lender.kind", string(kind)),
	)
	defer op.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListLenders(ctx, kind, "")
	}

	lenders, err := s.lenderRepository.Search(ctx, query, kind)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to search lenders")
	}

	op.Succeed("Lender search completed",
		zap.String("query", query),
		zap.Int("count", len(lenders)),
	)

	return lenders, nil
}

func (s *catalogService) lender(ctx context.Context, op *telemetry.Operation, id uint64) (*domain.Lender, error) {
	lender, err := s.lenderRepository.FindByID(ctx, id)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch lender")
	}
	if lender == nil {
		return nil, op.Reject(common.ErrLenderNotFound, "lender_not_found", "Lender not found",
			zap.Uint64("lender_id", id))
	}
	return lender, nil
}

// GetLender implements service.CatalogService.
func (s *catalogService) GetLender(ctx context.Context, id uint64) (*domain.Lender, error) {
	ctx, op := s.rec.Start(ctx, "GetLender", "get_lender",
		attribute.Int64("lender.id", int64(id)),
	)
	defer op.End()

	lender, err := s.lender(ctx, op, id)
	if err != nil {
		return nil, err
	}

	op.Succeed("Lender retrieved", zap.String("code", lender.Code))

	return lender, nil
}

// GetReviews implements service.CatalogService.
func (s *catalogService) GetReviews(ctx context.Context, lenderID uint64) ([]domain.Review, error) {
	ctx, op := s.rec.Start(ctx, "GetReviews", "get_reviews",
		attribute.Int64("lender.id", int64(lenderID)),
	)
	defer op.End()

	if _, err := s.lender(ctx, op, lenderID); err != nil {
		return nil, err
	}

	reviews, err := s.lenderRepository.FindReviews(ctx, lenderID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch reviews")
	}

	op.Succeed("Reviews retrieved", zap.Int("count", len(reviews)))

	return reviews, nil
}

// GetLoanProducts implements service.CatalogService.
func (s *catalogService) GetLoanProducts(ctx context.Context, lenderID uint64) ([]domain.LoanProduct, error) {
	ctx, op := s.rec.Start(ctx, "GetLoanProducts", "get_loan_products",
		attribute.Int64("lender.id", int64(lenderID)),
	)
	defer op.End()

	if _, err := s.lender(ctx, op, lenderID); err != nil {
		return nil, err
	}

	products, err := s.lenderRepository.FindLoanProducts(ctx, lenderID)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch loan products")
	}

	op.Succeed("Loan products retrieved", zap.Int("count", len(products)))

	return products, nil
}

// ListProducts implements service.CatalogService.
func (s *catalogService) ListProducts(ctx context.Context, category, query string) ([]domain.Product, error) {
	ctx, op := s.rec.Start(ctx, "ListProducts", "list_products",
		attribute.String("product.category", category),
	)
	defer op.End()

	products, err := s.productRepository.FindAll(ctx, strings.TrimSpace(category), strings.TrimSpace(query))
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch products")
	}

	op.Succeed("Products retrieved", zap.Int("count", len(products)))

	return products, nil
}

// GetProduct implements service.CatalogService.
func (s *catalogService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	ctx, op := s.rec.Start(ctx, "GetProduct", "get_product",
		attribute.Int64("product.id", int64(id)),
	)
	defer op.End()

	product, err := s.productRepository.FindByID(ctx, id)
	if err != nil {
		return nil, op.Fail(err, "repository_error", "Failed to fetch product")
	}
	if product == nil {
		return nil, op.Reject(common.ErrProductNotFound, "product_not_found", "Product not found",
			zap.Uint64("product_id", id))
	}

	op.Succeed("Product retrieved", zap.String("sku", product.SKU))

	return product, nil
}

// Seed implements service.CatalogService. Lenders are keyed by code and
// products by SKU, so seeding the same catalog twice leaves one copy.
func (s *catalogService) Seed(ctx context.Context, lenders []domain.Lender, products []domain.Product) error {
	ctx, op := s.rec.Start(ctx, "SeedCatalog", "seed",
		attribute.Int("catalog.lenders", len(lenders)),
		attribute.Int("catalog.products", len(products)),
	)
	defer op.End()

	for i := range lenders {
		if _, err := s.lenderRepository.Upsert(ctx, &lenders[i]); err != nil {
			return op.Fail(fmt.Errorf("seed lender %s: %w", lenders[i].Code, err), "seed_failed", "Failed to seed lender")
		}
	}

	for i := range products {
		if _, err := s.productRepository.Upsert(ctx, &products[i]); err != nil {
			return op.Fail(fmt.Errorf("seed product %s: %w", products[i].SKU, err), "seed_failed", "Failed to seed product")
		}
	}

	op.Succeed("Catalog seeded",
		zap.Int("lenders", len(lenders)),
		zap.Int("products", len(products)),
	)

	return nil
}

func NewCatalogService(
	lenderRepository repository.LenderRepository,
	productRepository repository.ProductRepository,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.CatalogService {
	return &catalogService{
		lenderRepository:  lenderRepository,
		productRepository: productRepository,
		rec:               telemetry.NewRecorder(telemetry.ServiceLayer, "catalog", meter, tracer, log),
	}
}
