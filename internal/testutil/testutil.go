// Package testutil holds fixtures shared by repository, service and handler tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	noop_metric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	noop_trace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Telemetry returns noop instruments named after the component under test.
func Telemetry(component string) (metric.Meter, trace.Tracer, *zap.Logger) {
	meter := noop_metric.NewMeterProvider().Meter("test-" + component + "-meter")
	tracer := noop_trace.NewTracerProvider().Tracer("test-" + component + "-tracer")
	return meter, tracer, zap.NewNop()
}

// SQLite opens a migrated in-memory database private to name.
func SQLite(t testing.TB, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, model.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// Truncate empties every table between tests.
func Truncate(db *gorm.DB) {
	for _, table := range []string{
		"credit_order_items",
		"credit_orders",
		"application_status_updates",
		"loan_applications",
		"lender_reviews",
		"loan_products",
		"lenders",
		"products",
		"kyc_documents",
		"customers",
	} {
		db.Exec("DELETE FROM " + table)
	}
}

// Redis starts a miniredis server that is closed with the test.
func Redis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

// Customer is a registered customer row with sensible defaults.
func Customer(email, nationalID string) *model.Customer {
	return &model.Customer{
		Email:           email,
		Password:        "$2a$04$placeholderplaceholderplaceholderplaceholderpl",
		FullName:        "Tendai Moyo",
		NationalID:      nationalID,
		Phone:           "0771234567",
		DateOfBirth:     time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC),
		EmploymentType:  "Civil Servant",
		MonthlyIncome:   10000,
		MonthlyExpenses: 5000,
		Role:            model.CustomerRole,
		KYCStatus:       model.KYCNotSubmitted,
	}
}

// Lender is a company lender row offering 10,000 to 500,000 over 6 to 24 months.
func Lender(code string) *model.Lender {
	return &model.Lender{
		Code:                code,
		Name:                "QuickCash Finance",
		Kind:                "COMPANY",
		Description:         "Fast personal loans for salaried workers",
		InterestRatePercent: 12,
		MinAmount:           10000,
		MaxAmount:           500000,
		MinTermMonths:       6,
		MaxTermMonths:       24,
		Rating:              4.5,
		ProcessingTime:      "24 hours",
		Specialties:         []string{"Personal", "Emergency"},
	}
}
