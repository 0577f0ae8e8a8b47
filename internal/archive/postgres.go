package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/report"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	ping    func(context.Context) error
	onClose func()
}

// NewPostgresStore creates a new PostgreSQL report store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Save stores a report, replacing any report with the same ID.
func (s *PostgresStore) Save(ctx context.Context, r *report.Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	query := `
		INSERT INTO reports (id, created_at, file_name, drugs, raw_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			drugs = EXCLUDED.drugs,
			raw_json = EXCLUDED.raw_json
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.CreatedAt.UTC(),
		r.FileName,
		domain.JoinDrugs(r.Drugs),
		r.RawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get retrieves a report by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*report.Report, error) {
	query := `
		SELECT id, created_at, file_name, drugs, raw_json
		FROM reports
		WHERE id = $1
	`

	r, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

// List returns reports newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*report.Report, error) {
	limit, offset = normalizePage(limit, offset)

	query := `
		SELECT id, created_at, file_name, drugs, raw_json
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var result []*report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}

	return result, rows.Err()
}

// Count returns the total number of stored reports.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// Delete removes a report by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// ExportJSON exports all reports to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, w io.Writer) error {
	return exportAll(ctx, s, w)
}

// Ping checks the connection, through the pool when one is attached.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.ping != nil {
		return s.ping(ctx)
	}
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	if s.onClose != nil {
		s.onClose()
		return nil
	}
	return s.db.Close()
}
