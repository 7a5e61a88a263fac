package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates all tables when they do not exist yet. Statements are
// idempotent so the bootstrap endpoint can be called repeatedly.
func EnsureSchema(ctx context.Context, conn *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverPostgres:
		schema = schemaPostgres
	case DriverSQLite:
		schema = schemaSQLite
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SeedPrimaryAdmin upserts the bootstrap administrator into both the users and
// admins tables.
func SeedPrimaryAdmin(ctx context.Context, conn *sql.DB, telegramID int64, username, fullName string) error {
	if _, err := conn.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, full_name, is_admin)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (telegram_id)
		DO UPDATE SET is_admin = TRUE, username = EXCLUDED.username, full_name = EXCLUDED.full_name
	`, telegramID, username, fullName); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO admins (telegram_id, username, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO NOTHING
	`, telegramID, username, fullName); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	telegram_id BIGINT UNIQUE NOT NULL,
	username VARCHAR(255),
	full_name VARCHAR(255),
	is_admin BOOLEAN DEFAULT FALSE,
	last_active TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admins (
	id SERIAL PRIMARY KEY,
	telegram_id BIGINT UNIQUE NOT NULL,
	username VARCHAR(255),
	full_name VARCHAR(255),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tests (
	id SERIAL PRIMARY KEY,
	code VARCHAR(50) UNIQUE NOT NULL,
	title VARCHAR(255) NOT NULL,
	admin_id BIGINT NOT NULL,
	open_questions_count INTEGER DEFAULT 0,
	closed_questions_count INTEGER DEFAULT 0,
	options_count INTEGER DEFAULT 4,
	is_active BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS test_answers (
	id SERIAL PRIMARY KEY,
	test_id INTEGER NOT NULL,
	question_number INTEGER NOT NULL,
	question_type VARCHAR(10) CHECK (question_type IN ('open', 'closed')),
	correct_answer TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS students (
	id SERIAL PRIMARY KEY,
	telegram_id BIGINT,
	full_name VARCHAR(255) NOT NULL,
	test_code VARCHAR(50) NOT NULL,
	started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	completed_at TIMESTAMP,
	score INTEGER DEFAULT 0,
	total_questions INTEGER DEFAULT 0,
	percentage NUMERIC(5,2) DEFAULT 0
);

CREATE TABLE IF NOT EXISTS student_answers (
	id SERIAL PRIMARY KEY,
	student_id INTEGER NOT NULL,
	question_number INTEGER NOT NULL,
	question_type VARCHAR(10) CHECK (question_type IN ('open', 'closed')),
	student_answer TEXT NOT NULL,
	is_correct BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY,
	telegram_id INTEGER UNIQUE NOT NULL,
	username TEXT,
	full_name TEXT,
	is_admin BOOLEAN DEFAULT FALSE,
	last_active TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admins (
	id INTEGER PRIMARY KEY,
	telegram_id INTEGER UNIQUE NOT NULL,
	username TEXT,
	full_name TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tests (
	id INTEGER PRIMARY KEY,
	code TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	admin_id INTEGER NOT NULL,
	open_questions_count INTEGER DEFAULT 0,
	closed_questions_count INTEGER DEFAULT 0,
	options_count INTEGER DEFAULT 4,
	is_active BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS test_answers (
	id INTEGER PRIMARY KEY,
	test_id INTEGER NOT NULL,
	question_number INTEGER NOT NULL,
	question_type TEXT CHECK (question_type IN ('open', 'closed')),
	correct_answer TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS students (
	id INTEGER PRIMARY KEY,
	telegram_id INTEGER,
	full_name TEXT NOT NULL,
	test_code TEXT NOT NULL,
	started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	completed_at TIMESTAMP,
	score INTEGER DEFAULT 0,
	total_questions INTEGER DEFAULT 0,
	percentage NUMERIC(5,2) DEFAULT 0
);

CREATE TABLE IF NOT EXISTS student_answers (
	id INTEGER PRIMARY KEY,
	student_id INTEGER NOT NULL,
	question_number INTEGER NOT NULL,
	question_type TEXT CHECK (question_type IN ('open', 'closed')),
	student_answer TEXT NOT NULL,
	is_correct BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
