package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"domainwatch/internal/requestlog"
)

const schema = `
CREATE TABLE IF NOT EXISTS request_log (
    id         UUID PRIMARY KEY,
    ts         TIMESTAMPTZ NOT NULL,
    domain     TEXT NOT NULL,
    method     TEXT NOT NULL,
    status     TEXT NOT NULL,
    request_id TEXT NOT NULL DEFAULT '',
    client_ip  TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    client     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS request_log_domain_ts_idx ON request_log (domain, ts);
`

// Store appends request log entries to PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the request_log table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create request_log table: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, entry requestlog.Entry) error {
	query := `
		INSERT INTO request_log (id, ts, domain, method, status, request_id, client_ip, user_agent, client)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Domain,
		entry.Method,
		string(entry.Status),
		entry.RequestID,
		entry.ClientIP,
		entry.UserAgent,
		entry.Client,
	)
	if err != nil {
		return fmt.Errorf("insert request log entry: %w", err)
	}
	return nil
}

// ListByDomain returns entries for domain, oldest first.
func (s *Store) ListByDomain(ctx context.Context, domain string) ([]requestlog.Entry, error) {
	query := `
		SELECT id, ts, domain, method, status, request_id, client_ip, user_agent, client
		FROM request_log
		WHERE domain = $1
		ORDER BY ts ASC
	`
	rows, err := s.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("query request log: %w", err)
	}
	defer rows.Close()

	var entries []requestlog.Entry
	for rows.Next() {
		var (
			e      requestlog.Entry
			status string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Domain, &e.Method, &status,
			&e.RequestID, &e.ClientIP, &e.UserAgent, &e.Client); err != nil {
			return nil, fmt.Errorf("scan request log entry: %w", err)
		}
		e.Status = requestlog.Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request log: %w", err)
	}
	return entries, nil
}
