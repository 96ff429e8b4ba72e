package lenderrepo

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
)

type lenderRepository struct {
	db  *gorm.DB
	rec *telemetry.Recorder
}

// Upsert implements repository.LenderRepository. Lenders are keyed by code;
// loan products and reviews of an existing lender are replaced.
func (l *lenderRepository) Upsert(ctx context.Context, lender *domain.Lender) (*domain.Lender, error) {
	ctx, op := l.rec.Start(ctx, "UpsertLender", "upsert",
		attribute.String("db.operation", "upsert"),
		attribute.String("lender.code", lender.Code),
	)
	defer op.End()

	data := model.LenderFromEntity(lender)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Lender
		err := tx.Where("code = ?", data.Code).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&data).Error
		case err != nil:
			return err
		}

		data.ID = existing.ID
		if err := tx.Where("lender_id = ?", existing.ID).Delete(&model.LoanProduct{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lender_id = ?", existing.ID).Delete(&model.LenderReview{}).Error; err != nil {
			return err
		}

		products, reviews := data.LoanProducts, data.Reviews
		data.LoanProducts, data.Reviews = nil, nil
		if err := tx.Save(&data).Error; err != nil {
			return err
		}

		for i := range products {
			products[i].LenderID = data.ID
		}
		for i := range reviews {
			reviews[i].LenderID = data.ID
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		if len(reviews) > 0 {
			if err := tx.Create(&reviews).Error; err != nil {
				return err
			}
		}
		data.LoanProducts, data.Reviews = products, reviews
		return nil
	})
	if err != nil {
		return nil, op.Fail(err, "upsert_failed", "Failed to upsert lender", zap.String("code", lender.Code))
	}

	op.Succeed("Lender upserted", zap.String("code", data.Code), zap.Uint64("lender_id", data.ID))

	return model.LenderToEntity(data), nil
}

// FindAll implements repository.LenderRepository. An empty kind lists every lender.
func (l *lenderRepository) FindAll(ctx context.Context, kind domain.LenderKind) ([]domain.Lender, error) {
	ctx, op := l.rec.Start(ctx, "FindAllLenders", "select",
		attribute.String("db.operation", "select"),
		attribute.String("lender.kind", string(kind)),
	)
	defer op.End()

	var lenders []model.Lender
	if err := withKind(l.db.WithContext(ctx), kind).Order("id ASC").Find(&lenders).Error; err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to list lenders")
	}

	op.Succeed("Lenders listed", zap.Int("count", len(lenders)))

	return model.LendersToEntity(lenders), nil
}

// FindByID implements repository.LenderRepository.
func (l *lenderRepository) FindByID(ctx context.Context, id uint64) (*domain.Lender, error) {
	ctx, op := l.rec.Start(ctx, "FindLenderByID", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("lender.id", int64(id)),
	)
	defer op.End()

	var lender model.Lender
	err := l.db.WithContext(ctx).
		Preload("LoanProducts").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("date DESC") }).
		First(&lender, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Lender not found", zap.Uint64("id", id))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding lender by ID", zap.Uint64("id", id))
	}

	op.Succeed("Lender found", zap.Uint64("id", id))

	return model.LenderToEntity(lender), nil
}

// Search implements repository.LenderRepository. Matching is
// case-insensitive over name, description and specialties.
func (l *lenderRepository) Search(ctx context.Context, query string, kind domain.LenderKind) ([]domain.Lender, error) {
	ctx, op := l.rec.Start(ctx, "SearchLenders", "search",
		attribute.String("db.operation", "select"),
		attribute.String("search.query", query),
	)
	defer op.End()

	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var lenders []model.Lender
	err := withKind(l.db.WithContext(ctx), kind).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(specialties) LIKE ?", pattern, pattern, pattern).
		Order("id ASC").
		Find(&lenders).Error
	if err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to search lenders", zap.String("query", query))
	}

	op.Succeed("Lenders searched", zap.String("query", query), zap.Int("count", len(lenders)))

	return model.LendersToEntity(lenders), nil
}

// FindByCategory implements repository.LenderRepository. Specialties are
// stored as a JSON array, so the quoted element is matched.
func (l *lenderRepository) FindByCategory(ctx context.Context, category string, kind domain.LenderKind) ([]domain.Lender, error) {
	ctx, op := l.rec.Start(ctx, "FindLendersByCategory", "select",
		attribute.String("db.operation", "select"),
		attribute.String("lender.category", category),
	)
	defer op.End()

	pattern := `%"` + strings.ToLower(strings.TrimSpace(category)) + `"%`

	var lenders []model.Lender
	err := withKind(l.db.WithContext(ctx), kind).
		Where("LOWER(specialties) LIKE ?", pattern).
		Order("id ASC").
		Find(&lenders).Error
	if err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to filter lenders by category", zap.String("category", category))
	}

	op.Succeed("Lenders filtered by category", zap.String("category", category), zap.Int("count", len(lenders)))

	return model.LendersToEntity(lenders), nil
}

// FindReviews implements repository.LenderRepository.
func (l *lenderRepository) FindReviews(ctx context.Context, lenderID uint64) ([]domain.Review, error) {
	ctx, op := l.rec.Start(ctx, "FindLenderReviews", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("lender.id", int64(lenderID)),
	)
	defer op.End()

	var reviews []model.LenderReview
	err := l.db.WithContext(ctx).Where("lender_id = ?", lenderID).Order("date DESC").Find(&reviews).Error
	if err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to list lender reviews", zap.Uint64("lender_id", lenderID))
	}

	op.Succeed("Lender reviews listed", zap.Uint64("lender_id", lenderID), zap.Int("count", len(reviews)))

	return model.ReviewsToEntity(reviews), nil
}

// FindLoanProducts implements repository.LenderRepository.
func (l *lenderRepository) FindLoanProducts(ctx context.Context, lenderID uint64) ([]domain.LoanProduct, error) {
	ctx, op := l.rec.Start(ctx, "FindLoanProducts", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("lender.id", int64(lenderID)),
	)
	defer op.End()

	var products []model.LoanProduct
	err := l.db.WithContext(ctx).Where("lender_id = ?", lenderID).Order("id ASC").Find(&products).Error
	if err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to list loan products", zap.Uint64("lender_id", lenderID))
	}

	op.Succeed("Loan products listed", zap.Uint64("lender_id", lenderID), zap.Int("count", len(products)))

	return model.LoanProductsToEntity(products), nil
}

// FindLoanProduct implements repository.LenderRepository. A product of a
// different lender does not match.
func (l *lenderRepository) FindLoanProduct(ctx context.Context, lenderID, productID uint64) (*domain.LoanProduct, error) {
	ctx, op := l.rec.Start(ctx, "FindLoanProduct", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("lender.id", int64(lenderID)),
		attribute.Int64("loan_product.id", int64(productID)),
	)
	defer op.End()

	var product model.LoanProduct
	err := l.db.WithContext(ctx).Where("id = ? AND lender_id = ?", productID, lenderID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Loan product not found", zap.Uint64("product_id", productID))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding loan product", zap.Uint64("product_id", productID))
	}

	op.Succeed("Loan product found", zap.Uint64("product_id", productID))

	products := model.LoanProductsToEntity([]model.LoanProduct{product})
	return &products[0], nil
}

func withKind(db *gorm.DB, kind domain.LenderKind) *gorm.DB {
	if kind == "" {
		return db
	}
	return db.Where("kind = ?", string(kind))
}

func NewLenderRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.LenderRepository {
	return &lenderRepository{
		db:  db,
		rec: telemetry.NewRecorder(telemetry.RepositoryLayer, "lenders", meter, tracer, log),
	}
}
