package orderrepo

import (
	"context"
	"errors"

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

type orderRepository struct {
	db  *gorm.DB
	rec *telemetry.Recorder
}

// Create implements repository.OrderRepository. Items are inserted with the order.
func (o *orderRepository) Create(ctx context.Context, order *domain.CreditOrder) (*domain.CreditOrder, error) {
	ctx, op := o.rec.Start(ctx, "CreateOrder", "insert",
		attribute.String("db.operation", "insert"),
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
	)
	defer op.End()

	data := model.CreditOrderFromEntity(order)
	if err := o.db.WithContext(ctx).Omit("Customer").Create(&data).Error; err != nil {
		return nil, op.Fail(err, "insert_failed", "Failed to create credit order", zap.String("order_id", order.ID))
	}

	op.Succeed("Credit order created",
		zap.String("order_id", data.ID),
		zap.Uint64("customer_id", data.CustomerID),
	)

	return model.CreditOrderToEntity(data), nil
}

// FindByID implements repository.OrderRepository.
func (o *orderRepository) FindByID(ctx context.Context, id string) (*domain.CreditOrder, error) {
	ctx, op := o.rec.Start(ctx, "FindOrderByID", "select",
		attribute.String("db.operation", "select"),
		attribute.String("order.id", id),
	)
	defer op.End()

	var order model.CreditOrder
	if err := o.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			op.NotFound("Credit order not found", zap.String("order_id", id))
			return nil, nil
		}
		return nil, op.Fail(err, "select_failed", "Error finding credit order", zap.String("order_id", id))
	}

	op.Succeed("Credit order found", zap.String("order_id", id))

	return model.CreditOrderToEntity(order), nil
}

// FindAllByCustomerID implements repository.OrderRepository, newest first.
func (o *orderRepository) FindAllByCustomerID(ctx context.Context, customerID uint64) ([]domain.CreditOrder, error) {
	ctx, op := o.rec.Start(ctx, "FindOrdersByCustomer", "select",
		attribute.String("db.operation", "select"),
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	var orders []model.CreditOrder
	err := o.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, op.Fail(err, "select_failed", "Failed to list credit orders", zap.Uint64("customer_id", customerID))
	}

	op.Succeed("Credit orders listed", zap.Uint64("customer_id", customerID), zap.Int("count", len(orders)))

	return model.CreditOrdersToEntity(orders), nil
}

func NewOrderRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.OrderRepository {
	return &orderRepository{
		db:  db,
		rec: telemetry.NewRecorder(telemetry.RepositoryLayer, "credit_orders", meter, tracer, log),
	}
}
