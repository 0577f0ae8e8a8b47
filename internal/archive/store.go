// Package archive keeps successful analysis reports so the web front can
// serve the download and copy actions after redirecting to a report page.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/report"
)

// Store defines the interface for report storage operations.
type Store interface {
	// Save stores a report under its ID.
	Save(ctx context.Context, r *report.Report) error

	// Get retrieves a report by ID. Unknown IDs yield domain.ErrNotFound.
	Get(ctx context.Context, id string) (*report.Report, error)

	// List returns reports newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*report.Report, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) (int64, error)

	// Delete removes a report. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// ExportJSON writes every stored report to w.
	ExportJSON(ctx context.Context, w io.Writer) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Export is the JSON document written by ExportJSON.
type Export struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Count      int              `json:"count"`
	Reports    []*report.Report `json:"reports"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

func exportAll(ctx context.Context, s Store, w io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	if all == nil {
		all = []*report.Report{}
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Count:      len(all),
		Reports:    all,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanReport reads one reports row and decodes its stored response body.
func scanReport(s scanner) (*report.Report, error) {
	var (
		r     report.Report
		drugs string
	)
	if err := s.Scan(&r.ID, &r.CreatedAt, &r.FileName, &drugs, &r.RawJSON); err != nil {
		return nil, err
	}
	if err := hydrate(&r, drugs); err != nil {
		return nil, err
	}
	return &r, nil
}

// hydrate restores the derived fields of a report loaded from a row.
func hydrate(r *report.Report, drugs string) error {
	for _, d := range strings.Split(drugs, ",") {
		if d = strings.TrimSpace(d); d != "" {
			r.Drugs = append(r.Drugs, domain.Drug(d))
		}
	}
	if err := json.Unmarshal([]byte(r.RawJSON), &r.Results); err != nil {
		return fmt.Errorf("decoding stored results for %s: %w", r.ID, err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
