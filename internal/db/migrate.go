package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		audio_uri TEXT NOT NULL,
		text TEXT NOT NULL,
		mood TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_text ON journal_entries(text)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_date ON journal_entries(created_at)`,
	`CREATE TABLE IF NOT EXISTS llm_usage_logs (
		id BIGSERIAL PRIMARY KEY,
		provider_name TEXT NOT NULL,
		model_name TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		response_time_ms BIGINT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		error_message TEXT,
		feature_used TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_provider_health (
		id BIGSERIAL PRIMARY KEY,
		provider_name TEXT NOT NULL,
		check_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_provider_health_name ON llm_provider_health(provider_name, check_time DESC)`,
}

// Migrate creates the schema and adds columns introduced after the first
// release.
func (s *Store) Migrate(ctx context.Context) error {
	return s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		for _, statement := range schema {
			if _, err := conn.Exec(ctx, statement); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		var exists bool
		err := conn.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name='journal_entries' AND column_name='duration'
			)`).Scan(&exists)
		if err != nil {
			return fmt.Errorf("inspect journal_entries: %w", err)
		}
		if !exists {
			if _, err := conn.Exec(ctx, `ALTER TABLE journal_entries ADD COLUMN duration INTEGER DEFAULT 0`); err != nil {
				return fmt.Errorf("add duration column: %w", err)
			}
		}
		return nil
	})
}
