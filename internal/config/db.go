package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

// Validate reports missing connection parameters
func (c DBConfig) Validate() error {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}
	return nil
}

// DSN builds the connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(ctx context.Context, cfg DBConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN())
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				log.Info("connected to PostgreSQL", slog.String("host", cfg.Host), slog.String("db", cfg.Name))
				return pool, nil
			}
			pool.Close()
		}
		log.Warn("failed to connect to database",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", maxRetries),
			slog.String("error", err.Error()),
			slog.Duration("retry_in", retryInterval),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates the records table if it doesn't exist
func AutoMigrate(ctx context.Context, db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		body JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);

	-- One account per email
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_users_email
		ON records ((lower(body->>'email')))
		WHERE collection = 'users';

	CREATE INDEX IF NOT EXISTS idx_records_collection_created_at ON records(collection, created_at);
	`
	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	return nil
}
