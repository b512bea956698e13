package llm

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"voice-journal/backend/internal/db"
)

// Store persists usage and health history in Postgres.
type Store struct {
	DB *db.Store
}

func NewStore(store *db.Store) *Store {
	return &Store{DB: store}
}

func (s *Store) InsertUsage(ctx context.Context, provider, model string, record UsageRecord) error {
	return s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO llm_usage_logs (provider_name, model_name, input_tokens, output_tokens, total_tokens, response_time_ms, success, error_message, feature_used, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			provider, model, record.InputTokens, record.OutputTokens, record.TotalTokens,
			record.Latency.Milliseconds(), record.Success, nullable(record.ErrorMessage), record.Feature, time.Now().UTC())
		return err
	})
}

func (s *Store) InsertHealth(ctx context.Context, provider string, result *HealthCheckResult) error {
	return s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO llm_provider_health (provider_name, check_time, status, latency_ms, error_message)
			VALUES ($1,$2,$3,$4,$5)`,
			provider, result.Timestamp.UTC(), result.Status, result.Latency.Milliseconds(), nullable(result.ErrorMessage))
		return err
	})
}

// ConsecutiveHealthFailures counts the failed checks in a row ending at the
// newest one, looking back at most threshold checks.
func (s *Store) ConsecutiveHealthFailures(ctx context.Context, provider string) (int, error) {
	statuses := []string{}
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT status FROM llm_provider_health
			WHERE provider_name=$1
			ORDER BY check_time DESC
			LIMIT $2`, provider, defaultFailureThreshold)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			if err := rows.Scan(&status); err != nil {
				return err
			}
			statuses = append(statuses, status)
		}
		return rows.Err()
	})
	return consecutiveFailures(statuses), err
}

// consecutiveFailures expects statuses newest first.
func consecutiveFailures(statuses []string) int {
	failures := 0
	for _, status := range statuses {
		if status != statusError {
			break
		}
		failures++
	}
	return failures
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
