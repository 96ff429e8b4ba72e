package customerrepo

import (
	"context"
	"errors"

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
)

type customerRepository struct {
	db  *gorm.DB
	rec *telemetry.Recorder
}

// CreateCustomer implements repository.CustomerRepository.
func (c *customerRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	ctx, op := c.rec.Start(ctx, "CreateCustomer", "insert",
		attribute.String("db.operation", "insert"),
		attribute.String("customer.email", customer.Email),
	)
	defer op.End()

	data := model.CustomerFromEntity(customer)
	if err := c.db.WithContext(ctx).Create(&data).Error; err != nil {
		return nil, op.Fail(err, "insert_failed", "Failed to create customer",
			zap.String("email", customer.Email))
	}

	op.Succeed("Customer created", zap.Uint64("customer_id", data.ID))

	return model.CustomerToEntity(data), nil
}

// FindByID implements repository.CustomerRepository.
func (c *customerRepository) FindByID(ctx context.Context, id uint64) (*domain.Customer, error) {
	ctx, op := c.rec.Start(ctx, "FindCustomerByID", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("customer.id", int64(id)),
	)
	defer op.End()

	var customer model.Customer
	err := c.db.WithContext(ctx).Preload("KYCDocuments").First(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Customer not found by ID", zap.Uint64("id", id))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding customer by ID", zap.Uint64("id", id))
	}

	op.Succeed("Customer found by ID", zap.Uint64("id", id))

	return model.CustomerToEntity(customer), nil
}

// FindByEmail implements repository.CustomerRepository.
func (c *customerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return c.findOne(ctx, "FindCustomerByEmail", "email = ?", email)
}

// FindByNationalID implements repository.CustomerRepository.
func (c *customerRepository) FindByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error) {
	return c.findOne(ctx, "FindCustomerByNationalID", "national_id = ?", nationalID)
}

func (c *customerRepository) findOne(ctx context.Context, spanName, where string, value string) (*domain.Customer, error) {
	ctx, op := c.rec.Start(ctx, spanName, "select",
		attribute.String("db.operation", "select"),
	)
	defer op.End()

	var customer model.Customer
	err := c.db.WithContext(ctx).Where(where, value).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Customer not found", zap.String("lookup", spanName))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding customer", zap.String("lookup", spanName))
	}

	op.Succeed("Customer found", zap.Uint64("customer_id", customer.ID))

	return model.CustomerToEntity(customer), nil
}

// Update implements repository.CustomerRepository. Only the self-service
// profile fields are written.
func (c *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	ctx, op := c.rec.Start(ctx, "UpdateCustomer", "update",
		attribute.String("db.operation", "update"),
		attribute.Int64("customer.id", int64(customer.ID)),
	)
	defer op.End()

	result := c.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"full_name":        customer.FullName,
			"phone":            customer.Phone,
			"employment_type":  customer.EmploymentType,
			"ec_number":        customer.ECNumber,
			"monthly_income":   customer.MonthlyIncome,
			"monthly_expenses": customer.MonthlyExpenses,
		})
	if result.Error != nil {
		return op.Fail(result.Error, "update_failed", "Failed to update customer",
			zap.Uint64("customer_id", customer.ID))
	}
	if result.RowsAffected == 0 {
		op.NotFound("Customer to update not found", zap.Uint64("customer_id", customer.ID))
		return common.ErrCustomerNotFound
	}

	op.Succeed("Customer updated", zap.Uint64("customer_id", customer.ID))

	return nil
}

// SubmitKYC implements repository.CustomerRepository. Earlier documents are
// replaced and the status moves to PENDING in one transaction.
func (c *customerRepository) SubmitKYC(ctx context.Context, customerID uint64, documents []domain.KYCDocument, verifiedIncome float64) error {
	ctx, op := c.rec.Start(ctx, "SubmitKYC", "kyc_submit",
		attribute.String("db.operation", "transaction"),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("kyc.documents", len(documents)),
	)
	defer op.End()

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", customerID).Delete(&model.KYCDocument{}).Error; err != nil {
			return err
		}

		docs := model.KYCDocumentsFromEntity(customerID, documents)
		if len(docs) > 0 {
			if err := tx.Create(&docs).Error; err != nil {
				return err
			}
		}

		updates := map[string]any{
			"kyc_status":        model.KYCPending,
			"kyc_reject_reason": "",
		}
		if verifiedIncome > 0 {
			updates["verified_monthly_income"] = verifiedIncome
		}

		result := tx.Model(&model.Customer{}).Where("id = ?", customerID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrCustomerNotFound
		}
		return nil
	})
	if err != nil {
		return op.Fail(err, "transaction_failed", "Failed to store KYC submission",
			zap.Uint64("customer_id", customerID))
	}

	op.Succeed("KYC submission stored",
		zap.Uint64("customer_id", customerID),
		zap.Int("documents", len(documents)),
	)

	return nil
}

// SetKYCStatus implements repository.CustomerRepository.
func (c *customerRepository) SetKYCStatus(ctx context.Context, customerID uint64, status domain.KYCStatus, reason string) error {
	ctx, op := c.rec.Start(ctx, "SetKYCStatus", "update",
		attribute.String("db.operation", "update"),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("kyc.status", string(status)),
	)
	defer op.End()

	result := c.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"kyc_status":        model.KYCStatus(status),
			"kyc_reject_reason": reason,
		})
	if result.Error != nil {
		return op.Fail(result.Error, "update_failed", "Failed to set KYC status",
			zap.Uint64("customer_id", customerID))
	}
	if result.RowsAffected == 0 {
		op.NotFound("Customer for KYC decision not found", zap.Uint64("customer_id", customerID))
		return common.ErrCustomerNotFound
	}

	op.Succeed("KYC status updated",
		zap.Uint64("customer_id", customerID),
		zap.String("status", string(status)),
	)

	return nil
}

func NewCustomerRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.CustomerRepository {
	return &customerRepository{
		db:  db,
		rec: telemetry.NewRecorder(telemetry.RepositoryLayer, "customers", meter, tracer, log),
	}
}
