package mysqldb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fazamuttaqien/lendora/config"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
	Charset      string
	ParseTime    bool
	Loc          string
}

// FromConfig takes the MYSQL_* settings from the service config.
func FromConfig(cfg *config.Config) (*DatabaseConfig, error) {
	port, err := strconv.Atoi(cfg.MYSQL_PORT)
	if err != nil {
		return nil, fmt.Errorf("invalid MYSQL_PORT %q: %w", cfg.MYSQL_PORT, err)
	}

	return &DatabaseConfig{
		Host:         cfg.MYSQL_HOST,
		Port:         port,
		Username:     cfg.MYSQL_USER,
		Password:     cfg.MYSQL_PASSWORD,
		DatabaseName: cfg.MYSQL_DBNAME,
		Charset:      "utf8mb4",
		ParseTime:    true,
		Loc:          "Local",
	}, nil
}

// BuildDSN builds MySQL DSN (Data Source Name) from config
func (c *DatabaseConfig) BuildDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		c.Username, c.Password, c.Host, c.Port,
		c.DatabaseName, c.Charset, c.ParseTime, c.Loc,
	)
}

// Connect opens the pool. SQL is only logged in development.
func Connect(c *DatabaseConfig, development bool) (*gorm.DB, error) {
	level := logger.Silent
	if development {
		level = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(c.BuildDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// ConnectWithRetry keeps trying until the database answers or ctx ends.
func ConnectWithRetry(ctx context.Context, c *DatabaseConfig, development bool, maxRetries int, retryDelay time.Duration) (*gorm.DB, error) {
	var lastErr error
	for i := range maxRetries {
		db, err := Connect(c, development)
		if err == nil {
			zap.L().Info("Connected to MySQL",
				zap.String("host", c.Host),
				zap.String("database", c.DatabaseName),
				zap.Int("attempt", i+1),
			)
			return db, nil
		}
		lastErr = err

		zap.L().Warn("Failed to connect to MySQL",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return sqlDB.Close()
}

// Ping checks if database connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return sqlDB.PingContext(ctx)
}
