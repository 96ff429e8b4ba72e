package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fazamuttaqien/lendora/pkg/common"
	"github.com/fazamuttaqien/lendora/pkg/loancalc"
)

type Config struct {
	SERVICE_NAME                string
	SERVICE_VERSION             string
	ENVIRONMENT                 string
	OTEL_EXPORTER_OTLP_ENDPOINT string
	OTEL_RESOURCE_ATTRIBUTES    string
	LOG_LEVEL                   string
	METRIC_INTERVAL             time.Duration
	RUNTIME_METRICS             bool
	TRACE_SAMPLE_RATIO          float64
	REQUESTS_METRIC             bool
	DEVELOPMENT_MODE            bool
	SERVER_PORT                 string
	ALLOWED_ORIGINS             string
	CLOUDINARY_CLOUD            string
	CLOUDINARY_API_KEY          string
	CLOUDINARY_API_SECRET       string
	CLOUDINARY_FOLDER           string
	MYSQL_HOST                  string
	MYSQL_PORT                  string
	MYSQL_USER                  string
	MYSQL_PASSWORD              string
	MYSQL_DBNAME                string
	REDIS_ADDRESS               string
	REDIS_PASSWORD              string
	JWT_SECRET_KEY              string
	JWT_TTL                     time.Duration
	SHUTDOWN_TIMEOUT            time.Duration
	RATE_LIMIT_RPS              float64
	RATE_LIMIT_BURST            int
	RATE_LIMIT_TTL              time.Duration
	CART_TTL                    time.Duration
	CATALOG_FILE                string
	ADMIN_EMAIL                 string
	ADMIN_PASSWORD              string

	// Lending policy
	AFFORDABILITY_RATIO       float64
	MAX_LOAN_HAIRCUT          float64
	ELIGIBILITY_RATE_PERCENT  float64
	STORE_CREDIT_RATE_PERCENT float64
	VALIDATION_MODE           string
	DEFAULT_MONTHLY_INCOME    float64
	DEFAULT_MONTHLY_EXPENSES  float64
}

func LoadConfig() (*Config, error) {
	Env := common.GetEnv

	// Helper function to parse Duration from environment variable
	Duration := func(key string, defaultValue time.Duration) time.Duration {
		if value := os.Getenv(key); value != "" {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	// Helper function to parse boolean from environment variable
	Bool := func(key string, defaultValue bool) bool {
		if value := os.Getenv(key); value != "" {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}

	Int := func(key string, defaultValue int) int {
		if value := os.Getenv(key); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	// Float keeps the first parse error instead of falling back to the default
	var parseErr error
	Float := func(key string, defaultValue float64) float64 {
		value := os.Getenv(key)
		if value == "" {
			return defaultValue
		}
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		return floatValue
	}

	config := &Config{
		SERVICE_NAME:                Env("SERVICE_NAME", "lendora"),
		SERVICE_VERSION:             Env("SERVICE_VERSION", "1.0.0"),
		ENVIRONMENT:                 Env("ENVIRONMENT", "production"),
		OTEL_EXPORTER_OTLP_ENDPOINT: Env("OTEL_EXPORTER_OTLP_ENDPOINT", "0.0.0.0:4317"),
		OTEL_RESOURCE_ATTRIBUTES:    Env("OTEL_RESOURCE_ATTRIBUTES", "service.name=lendora,service.namespace=lendora,deployment.environment=production"),
		LOG_LEVEL:                   Env("LOG_LEVEL", "info"),
		METRIC_INTERVAL:             Duration("METRIC_INTERVAL", 15*time.Second),
		RUNTIME_METRICS:             Bool("RUNTIME_METRICS", true),
		TRACE_SAMPLE_RATIO:          Float("TRACE_SAMPLE_RATIO", 0.1),
		REQUESTS_METRIC:             Bool("REQUESTS_METRIC", true),
		DEVELOPMENT_MODE:            Bool("DEVELOPMENT_MODE", false),
		SERVER_PORT:                 Env("SERVER_PORT", "3001"),
		ALLOWED_ORIGINS:             Env("ALLOWED_ORIGINS", "http://localhost:8081"),
		CLOUDINARY_CLOUD:            Env("CLOUDINARY_CLOUD", ""),
		CLOUDINARY_API_KEY:          Env("CLOUDINARY_API_KEY", ""),
		CLOUDINARY_API_SECRET:       Env("CLOUDINARY_API_SECRET", ""),
		CLOUDINARY_FOLDER:           Env("CLOUDINARY_FOLDER", "lendora/kyc"),
		MYSQL_HOST:                  Env("MYSQL_HOST", "127.0.0.1"),
		MYSQL_PORT:                  Env("MYSQL_PORT", "3306"),
		MYSQL_USER:                  Env("MYSQL_USER", "root"),
		MYSQL_PASSWORD:              Env("MYSQL_PASSWORD", ""),
		MYSQL_DBNAME:                Env("MYSQL_DBNAME", "lendora"),
		REDIS_ADDRESS:               Env("REDIS_ADDRESS", "localhost:6379"),
		REDIS_PASSWORD:              Env("REDIS_PASSWORD", ""),
		JWT_SECRET_KEY:              Env("JWT_SECRET_KEY", ""),
		JWT_TTL:                     Duration("JWT_TTL", 72*time.Hour),
		SHUTDOWN_TIMEOUT:            Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		RATE_LIMIT_RPS:              Float("RATE_LIMIT_RPS", 100.0/(15*60)),
		RATE_LIMIT_BURST:            Int("RATE_LIMIT_BURST", 100),
		RATE_LIMIT_TTL:              Duration("RATE_LIMIT_TTL", 15*time.Minute),
		CART_TTL:                    Duration("CART_TTL", 7*24*time.Hour),
		CATALOG_FILE:                Env("CATALOG_FILE", "config/catalog.yaml"),
		ADMIN_EMAIL:                 Env("ADMIN_EMAIL", "admin@lendora.local"),
		ADMIN_PASSWORD:              Env("ADMIN_PASSWORD", ""),

		AFFORDABILITY_RATIO:       Float("AFFORDABILITY_RATIO", loancalc.DefaultAffordabilityRatio),
		MAX_LOAN_HAIRCUT:          Float("MAX_LOAN_HAIRCUT", loancalc.DefaultMaxLoanHaircut),
		ELIGIBILITY_RATE_PERCENT:  Float("ELIGIBILITY_RATE_PERCENT", 12),
		STORE_CREDIT_RATE_PERCENT: Float("STORE_CREDIT_RATE_PERCENT", 18),
		VALIDATION_MODE:           Env("VALIDATION_MODE", "strict"),
		DEFAULT_MONTHLY_INCOME:    Float("DEFAULT_MONTHLY_INCOME", 30000),
		DEFAULT_MONTHLY_EXPENSES:  Float("DEFAULT_MONTHLY_EXPENSES", 15000),
	}

	if parseErr != nil {
		return nil, parseErr
	}

	if _, err := config.LendingPolicy(); err != nil {
		return nil, err
	}

	if config.ELIGIBILITY_RATE_PERCENT < 0 || config.STORE_CREDIT_RATE_PERCENT < 0 {
		return nil, fmt.Errorf("interest rates must not be negative")
	}

	return config, nil
}

// LendingPolicy builds the eligibility policy from the configured ratios and mode.
func (c *Config) LendingPolicy() (loancalc.Policy, error) {
	mode, err := loancalc.ParseMode(c.VALIDATION_MODE)
	if err != nil {
		return loancalc.Policy{}, err
	}

	policy := loancalc.Policy{
		AffordabilityRatio: c.AFFORDABILITY_RATIO,
		MaxLoanHaircut:     c.MAX_LOAN_HAIRCUT,
		Mode:               mode,
	}
	if err := policy.Validate(); err != nil {
		return loancalc.Policy{}, fmt.Errorf("invalid lending policy: %w", err)
	}

	return policy, nil
}
