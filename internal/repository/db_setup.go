package repository

import (
	"context"
	"fmt"

	"studyflow/pkg/logger"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(255) NOT NULL UNIQUE,
    password VARCHAR(255) NOT NULL,
    display_name VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
    id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    subject TEXT,
    due_date DATE,
    done BOOLEAN NOT NULL DEFAULT FALSE,
    notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ,
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    archived_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_archived ON tasks (user_id, archived);
`

func CreateTableIfNotExists(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	logger.SystemLogger.Info("Tables 'users', 'tasks' are ready")
	return nil
}

func DeleteAllTable(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS users;
    `); err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	logger.SystemLogger.Info("Tables 'users', 'tasks' are deleted")
	return nil
}
