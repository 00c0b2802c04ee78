package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"domainwatch/internal/domains/models"
	"domainwatch/pkg/domain"
	"domainwatch/pkg/platform/sentinel"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore persists domain records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed record store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(files)
	for _, file := range files {
		body, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := s.pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

const selectRecord = `
SELECT name, status, detection_count, engine_count, flagged_engines,
       has_registration, registration_owner, registration_created_at, registration_expires_at,
       last_scanned_at, updated_at
FROM domains
WHERE name = $1`

func (s *PostgresStore) Get(ctx context.Context, name domain.Name) (*models.Record, error) {
	var (
		rawName         string
		status          string
		detections      *int32
		engines         *int32
		flagged         []string
		hasRegistration bool
		owner           *string
		createdAt       *time.Time
		expiresAt       *time.Time
		rec             models.Record
	)
	err := s.pool.QueryRow(ctx, selectRecord, name.String()).Scan(
		&rawName, &status, &detections, &engines, &flagged,
		&hasRegistration, &owner, &createdAt, &expiresAt,
		&rec.LastScannedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find domain record: %w", err)
	}

	rec.Name = domain.Name(rawName)
	rec.Status = models.Status(status)
	if detections != nil && engines != nil {
		rep := models.NewReputation(int(*detections), int(*engines), flagged)
		rec.Reputation = &rep
	}
	if hasRegistration {
		rec.Registration = &models.Registration{Owner: owner, CreatedAt: createdAt, ExpiresAt: expiresAt}
	}
	return &rec, nil
}

// Upsert inserts the record or updates only the columns the update supplies.
// last_scanned_at goes through GREATEST so a late writer cannot move it backwards.
func (s *PostgresStore) Upsert(ctx context.Context, name domain.Name, u models.Update) error {
	query, args := buildUpsert(name, u)
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert domain record: %w", err)
	}
	return nil
}

func buildUpsert(name domain.Name, u models.Update) (string, []any) {
	cols := []string{"name"}
	args := []any{name.String()}
	var sets []string

	add := func(col string, val any, set string) {
		cols = append(cols, col)
		args = append(args, val)
		if set == "" {
			set = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
		}
		sets = append(sets, set)
	}

	if u.Status != nil {
		add("status", string(*u.Status), "")
	}
	if u.Reputation != nil {
		flagged := u.Reputation.FlaggedEngines
		if flagged == nil {
			flagged = []string{}
		}
		add("detection_count", int32(u.Reputation.DetectionCount), "")
		add("engine_count", int32(u.Reputation.EngineCount), "")
		add("flagged_engines", flagged, "")
	}
	if u.Registration != nil {
		add("has_registration", true, "")
		add("registration_owner", u.Registration.Owner, "")
		add("registration_created_at", u.Registration.CreatedAt, "")
		add("registration_expires_at", u.Registration.ExpiresAt, "")
	}
	if u.LastScannedAt != nil {
		add("last_scanned_at", *u.LastScannedAt,
			"last_scanned_at = GREATEST(domains.last_scanned_at, EXCLUDED.last_scanned_at)")
	}
	sets = append(sets, "updated_at = now()")

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO domains (%s) VALUES (%s) ON CONFLICT (name) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)
	return query, args
}

const selectStale = `
SELECT name FROM domains
WHERE last_scanned_at IS NULL OR last_scanned_at < $1
ORDER BY name`

func (s *PostgresStore) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Name, error) {
	rows, err := s.pool.Query(ctx, selectStale, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale domains: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list stale domains: %w", err)
	}
	names := make([]domain.Name, len(raw))
	for i, n := range raw {
		names[i] = domain.Name(n)
	}
	return names, nil
}
