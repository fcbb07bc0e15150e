package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables this service owns when they do not yet
// exist. The sessions table carries a generated `active` column that
// is 1 while the session is open and NULL once closed, plus a unique
// index on (table_id, active). MySQL unique indexes ignore NULL
// entries, so any number of closed sessions may share a table while a
// second open session is rejected with a duplicate-key error. That
// index is the storage-level guarantee against double booking; every
// application-side availability check is only there to fail earlier
// and friendlier.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(32) NOT NULL DEFAULT 'CUSTOMER',
			restaurant_id BIGINT UNSIGNED NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_refresh_user (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			restaurant_id BIGINT UNSIGNED NOT NULL,
			number INT UNSIGNED NOT NULL,
			capacity INT UNSIGNED NOT NULL DEFAULT 2,
			location VARCHAR(100) NOT NULL DEFAULT '',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_restaurant_number (restaurant_id, number)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			session_key CHAR(36) NOT NULL UNIQUE,
			table_id BIGINT UNSIGNED NOT NULL,
			restaurant_id BIGINT UNSIGNED NOT NULL,
			staff_id BIGINT UNSIGNED NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_phone VARCHAR(50) NOT NULL DEFAULT '',
			customer_email VARCHAR(255) NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			closed_at DATETIME NULL,
			active TINYINT(1) AS (IF(closed_at IS NULL, 1, NULL)) STORED,
			UNIQUE KEY uniq_active_table (table_id, active),
			KEY idx_sessions_restaurant (restaurant_id, closed_at)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			order_number VARCHAR(32) NOT NULL,
			session_key CHAR(36) NOT NULL,
			restaurant_id BIGINT UNSIGNED NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_orders_session (session_key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
