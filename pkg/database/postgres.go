package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/pkg/config"
)

const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"

	sslDisable = "disable"
)

type opener func(driver, dsn string) (*sqlx.DB, error)

func openAndPing(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewPostgres returns a configured PostgreSQL pool. When the configured SSL mode
// fails and SSLFallback is set, a second attempt is made with sslmode=disable.
func NewPostgres(cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	return connect(cfg, logger, openAndPing)
}

func connect(cfg config.DatabaseConfig, logger *zap.Logger, open opener) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := driverName(cfg.Driver)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	db, err := open(driver, BuildDSN(cfg, sslMode))
	if err != nil && cfg.SSLFallback && sslMode != sslDisable {
		logger.Warn("database connection failed, retrying without ssl",
			zap.String("sslmode", sslMode), zap.Error(err))
		db, err = open(driver, BuildDSN(cfg, sslDisable))
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	return db, nil
}

// BuildDSN renders a connection string for the given SSL mode. DATABASE_URL wins over
// the discrete host settings; its sslmode query parameter is overridden.
func BuildDSN(cfg config.DatabaseConfig, sslMode string) string {
	if cfg.URL != "" {
		parsed, err := url.Parse(cfg.URL)
		if err == nil && parsed.Scheme != "" {
			q := parsed.Query()
			q.Set("sslmode", sslMode)
			parsed.RawQuery = q.Encode()
			return parsed.String()
		}
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		sslMode,
	)
}

func driverName(raw string) string {
	if strings.EqualFold(raw, DriverPGX) {
		return DriverPGX
	}
	return DriverPostgres
}
