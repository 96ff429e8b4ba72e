package applicationrepo

import (
	"context"
	"errors"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/model"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type applicationRepository struct {
	db  *gorm.DB
	rec *telemetry.Recorder
}

// Create implements repository.ApplicationRepository. The application and its
// first status update are written together.
func (a *applicationRepository) Create(ctx context.Context, application *domain.LoanApplication, message string) (*domain.LoanApplication, error) {
	ctx, op := a.rec.Start(ctx, "CreateApplication", "insert",
		attribute.String("db.operation", "insert"),
		attribute.String("application.reference", application.Reference),
		attribute.Int64("customer.id", int64(application.CustomerID)),
	)
	defer op.End()

	data := model.LoanApplicationFromEntity(application)

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&data).Error; err != nil {
			return err
		}

		update := model.ApplicationStatusUpdate{
			ApplicationID: data.ID,
			Status:        data.Status,
			Message:       message,
			CreatedAt:     data.AppliedAt,
		}
		if err := tx.Create(&update).Error; err != nil {
			return err
		}
		data.StatusUpdates = []model.ApplicationStatusUpdate{update}
		return nil
	})
	if err != nil {
		return nil, op.Fail(err, "insert_failed", "Failed to create loan application",
			zap.String("reference", application.Reference))
	}

	op.Succeed("Loan application created",
		zap.Uint64("application_id", data.ID),
		zap.String("reference", data.Reference),
	)

	return model.LoanApplicationToEntity(data), nil
}

// FindByID implements repository.ApplicationRepository.
func (a *applicationRepository) FindByID(ctx context.Context, id uint64) (*domain.LoanApplication, error) {
	ctx, op := a.rec.Start(ctx, "FindApplicationByID", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("application.id", int64(id)),
	)
	defer op.End()

	var application model.LoanApplication
	err := a.db.WithContext(ctx).
		Preload("Lender").
		Preload("StatusUpdates", newestFirst).
		First(&application, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Loan application not found", zap.Uint64("id", id))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding loan application", zap.Uint64("id", id))
	}

	op.Succeed("Loan application found", zap.Uint64("id", id))

	return model.LoanApplicationToEntity(application), nil
}

// FindPaginatedByCustomerID implements repository.ApplicationRepository.
func (a *applicationRepository) FindPaginatedByCustomerID(ctx context.Context, customerID uint64, params domain.Params) ([]domain.LoanApplication, int64, error) {
	ctx, op := a.rec.Start(ctx, "FindApplicationsByCustomer", "select_paginated",
		attribute.String("db.operation", "select"),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("filter.status", params.Status),
	)
	defer op.End()

	page, limit := normalize(params)

	query := a.db.WithContext(ctx).Model(&model.LoanApplication{}).Where("customer_id = ?", customerID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, op.Fail(err, "count_failed", "Failed to count loan applications",
			zap.Uint64("customer_id", customerID))
	}

	var applications []model.LoanApplication
	err := query.Session(&gorm.Session{}).
		Preload("Lender").
		Order("applied_at DESC").Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&applications).Error
	if err != nil {
		return nil, 0, op.Fail(err, "select_failed", "Failed to list loan applications",
			zap.Uint64("customer_id", customerID))
	}

	op.Succeed("Loan applications listed",
		zap.Uint64("customer_id", customerID),
		zap.Int("count", len(applications)),
		zap.Int64("total", total),
	)

	return model.LoanApplicationsToEntity(applications), total, nil
}

// UpdateStatus implements repository.ApplicationRepository. The row is only
// changed while it still has status from; otherwise ErrStaleApplication is
// returned, or ErrApplicationNotFound when the row does not exist.
func (a *applicationRepository) UpdateStatus(ctx context.Context, id uint64, from, to domain.ApplicationStatus, message string, at time.Time) error {
	ctx, op := a.rec.Start(ctx, "UpdateApplicationStatus", "update_status",
		attribute.String("db.operation", "update"),
		attribute.Int64("application.id", int64(id)),
		attribute.String("status.from", string(from)),
		attribute.String("status.to", string(to)),
	)
	defer op.End()

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": model.ApplicationStatus(to)}
		switch to {
		case domain.ApplicationApproved:
			updates["approved_at"] = at
		case domain.ApplicationDisbursed:
			updates["disbursed_at"] = at
		}

		result := tx.Model(&model.LoanApplication{}).
			Where("id = ? AND status = ?", id, model.ApplicationStatus(from)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.LoanApplication{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return common.ErrApplicationNotFound
			}
			return common.ErrStaleApplication
		}

		return tx.Create(&model.ApplicationStatusUpdate{
			ApplicationID: id,
			Status:        model.ApplicationStatus(to),
			Message:       message,
			CreatedAt:     at,
		}).Error
	})
	if err != nil {
		if errors.Is(err, common.ErrApplicationNotFound) || errors.Is(err, common.ErrStaleApplication) {
			return op.Reject(err, "conflict", "Application status not updated", zap.Uint64("id", id))
		}
		return op.Fail(err, "transaction_failed", "Failed to update application status", zap.Uint64("id", id))
	}

	op.Succeed("Application status updated",
		zap.Uint64("id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	return nil
}

// FindStatusUpdates implements repository.ApplicationRepository, newest first.
func (a *applicationRepository) FindStatusUpdates(ctx context.Context, applicationID uint64) ([]domain.StatusUpdate, error) {
	ctx, op := a.rec.Start(ctx, "FindStatusUpdates", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("application.id", int64(applicationID)),
	)
	defer op.End()

	var updates []model.ApplicationStatusUpdate
	err := newestFirst(a.db.WithContext(ctx).Where("application_id = ?", applicationID)).Find(&updates).Error
	if err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to list status updates",
			zap.Uint64("application_id", applicationID))
	}

	op.Succeed("Status updates listed", zap.Uint64("application_id", applicationID), zap.Int("count", len(updates)))

	return model.StatusUpdatesToEntity(updates), nil
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func normalize(params domain.Params) (page, limit int) {
	page, limit = params.Page, params.Limit
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func NewApplicationRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.ApplicationRepository {
	return &applicationRepository{
		db:  db,
		rec: telemetry.NewRecorder(telemetry.RepositoryLayer, "loan_applications", meter, tracer, log),
	}
}
