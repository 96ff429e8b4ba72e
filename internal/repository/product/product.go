package productrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/model"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db  *gorm.DB
	rec *telemetry.Recorder
}

// Upsert implements repository.ProductRepository.
func (p *productRepository) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, op := p.rec.Start(ctx, "UpsertProduct", "upsert",
		attribute.String("db.operation", "upsert"),
		attribute.String("product.sku", product.SKU),
	)
	defer op.End()

	data := model.ProductFromEntity(product)
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category", "price"}),
	}).Create(&data).Error
	if err != nil {
		return nil, op.Fail(err, "upsert_failed", "Failed to upsert product", zap.String("sku", product.SKU))
	}

	// The insert id is unreliable on the conflict path.
	var stored model.Product
	if err := p.db.WithContext(ctx).Where("sku = ?", data.SKU).First(&stored).Error; err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to reload product", zap.String("sku", product.SKU))
	}
	data = stored

	op.Succeed("Product upserted", zap.String("sku", data.SKU), zap.Uint64("product_id", data.ID))

	products := model.ProductsToEntity([]model.Product{data})
	return &products[0], nil
}

// FindAll implements repository.ProductRepository. Empty filters match everything.
func (p *productRepository) FindAll(ctx context.Context, category, query string) ([]domain.Product, error) {
	ctx, op := p.rec.Start(ctx, "FindAllProducts", "select",
		attribute.String("db.operation", "select"),
		attribute.String("product.category", category),
	)
	defer op.End()

	db := p.db.WithContext(ctx)
	if category != "" {
		db = db.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var products []model.Product
	if err := db.Order("id ASC").Find(&products).Error; err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to list products")
	}

	op.Succeed("Products listed", zap.Int("count", len(products)))

	return model.ProductsToEntity(products), nil
}

// FindByID implements repository.ProductRepository.
func (p *productRepository) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	ctx, op := p.rec.Start(ctx, "FindProductByID", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("product.id", int64(id)),
	)
	defer op.End()

	var product model.Product
	if err := p.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Product not found", zap.Uint64("id", id))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding product by ID", zap.Uint64("id", id))
	}

	op.Succeed("Product found", zap.Uint64("id", id))

	products := model.ProductsToEntity([]model.Product{product})
	return &products[0], nil
}

// FindByIDs implements repository.ProductRepository. Unknown ids are skipped.
func (p *productRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	ctx, op := p.rec.Start(ctx, "FindProductsByIDs", "select",
		attribute.String("db.operation", "select"),
		attribute.Int("product.ids", len(ids)),
	)
	defer op.End()

	if len(ids) == 0 {
		op.Succeed("No products requested")
		return []domain.Product{}, nil
	}

	var products []model.Product
	if err := p.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to load products by IDs")
	}

	op.Succeed("Products loaded", zap.Int("requested", len(ids)), zap.Int("found", len(products)))

	return model.ProductsToEntity(products), nil
}

func NewProductRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.ProductRepository {
	return &productRepository{
		db:  db,
		rec: telemetry.NewRecorder(telemetry.RepositoryLayer, "products", meter, tracer, log),
	}
}
