package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/agristore/storefront-api/internal/config"
	"github.com/agristore/storefront-api/pkg/logger"
)

// Tx is the subset of a database transaction the service layer drives.
// *sqlx.Tx satisfies it; tests substitute their own implementation.
type Tx interface {
	Commit() error
	Rollback() error
}

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// BeginTx starts a new transaction.
func (d *Database) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := d.DB.BeginTxx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return tx, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations runs database migrations
func (d *Database) RunMigrations() error {
	// For initial setup, just create tables directly
	// In a real project, you'd want to use a migration tool
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		product_name VARCHAR(200) NOT NULL,
		price NUMERIC(10, 2) NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		kind VARCHAR(20) NOT NULL DEFAULT 'standard',
		power VARCHAR(50),
		brand VARCHAR(100)
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(50) NOT NULL,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INT NOT NULL,
		variations JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_cart_items_user_id ON cart_items(user_id);

	CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(50) NOT NULL,
		payment_id VARCHAR(100) NOT NULL UNIQUE,
		payment_method VARCHAR(50) NOT NULL,
		amount_paid NUMERIC(10, 2) NOT NULL,
		status VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(50) NOT NULL,
		payment_id BIGINT REFERENCES payments(id),
		order_number VARCHAR(30) NOT NULL DEFAULT '',
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		phone VARCHAR(30) NOT NULL,
		email VARCHAR(200) NOT NULL,
		address_line_1 VARCHAR(200) NOT NULL,
		address_line_2 VARCHAR(200) NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL,
		state VARCHAR(100) NOT NULL,
		country VARCHAR(100) NOT NULL,
		order_note TEXT NOT NULL DEFAULT '',
		order_total NUMERIC(10, 2) NOT NULL,
		tax NUMERIC(10, 2) NOT NULL DEFAULT 0,
		status VARCHAR(100) NOT NULL,
		ip VARCHAR(45) NOT NULL DEFAULT '',
		is_ordered BOOLEAN NOT NULL DEFAULT FALSE,
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		cancellation_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
	CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number);

	CREATE TABLE IF NOT EXISTS order_products (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id),
		payment_id BIGINT NOT NULL REFERENCES payments(id),
		user_id VARCHAR(50) NOT NULL,
		product_id BIGINT NOT NULL REFERENCES products(id),
		product_name VARCHAR(200) NOT NULL,
		quantity INT NOT NULL,
		product_price NUMERIC(10, 2) NOT NULL,
		ordered BOOLEAN NOT NULL DEFAULT TRUE,
		kind VARCHAR(20) NOT NULL DEFAULT 'standard',
		power VARCHAR(50),
		brand VARCHAR(100),
		variations JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_order_products_order_id ON order_products(order_id);

	-- Outbox table for message publishing
	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);

	-- Dead letter queue for outbox messages that exhausted their retries
	CREATE TABLE IF NOT EXISTS dead_letter_messages (
		id SERIAL PRIMARY KEY,
		original_message_id BIGINT NOT NULL,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		error_message TEXT NOT NULL,
		failure_reason TEXT NOT NULL,
		retry_count INT NOT NULL DEFAULT 0,
		last_retry_at TIMESTAMP,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dead_letter_status ON dead_letter_messages(status);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
