// Package report turns an analysis response into the artefacts the operator
// keeps: the pretty-printed JSON download, a spreadsheet and the clipboard copy.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// Fixed download names.
const (
	JSONFileName = "pharma_guard_results.json"
	XLSXFileName = "pharma_guard_results.xlsx"
)

// Report is one successful analysis as kept by the archive.
type Report struct {
	ID        string                  `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	FileName  string                  `json:"file_name"`
	Drugs     []domain.Drug           `json:"drugs"`
	Results   []domain.AnalysisResult `json:"results"`
	RawJSON   string                  `json:"raw_json"`
}

// New builds a report for a completed exchange. RawJSON is the response body
// re-indented with two spaces, or the encoded results when no body was kept.
func New(fileName string, drugs []domain.Drug, resp *domain.AnalysisResponse) (*Report, error) {
	if resp == nil {
		return nil, fmt.Errorf("analysis response is required")
	}
	var (
		raw string
		err error
	)
	if len(bytes.TrimSpace(resp.Raw)) == 0 {
		raw, err = FormatResults(resp.Results)
	} else {
		raw, err = FormatJSON(resp.Raw)
	}
	if err != nil {
		return nil, err
	}
	return &Report{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		FileName:  fileName,
		Drugs:     append([]domain.Drug(nil), drugs...),
		Results:   resp.Results,
		RawJSON:   raw,
	}, nil
}

// FormatJSON pretty-prints a JSON document with a two-space indent, keeping
// the key order and values exactly as received.
func FormatJSON(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return "", fmt.Errorf("formatting response JSON: %w", err)
	}
	return buf.String(), nil
}

// FormatResults encodes decoded results in the same two-space layout.
func FormatResults(results []domain.AnalysisResult) (string, error) {
	if results == nil {
		results = []domain.AnalysisResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// WriteJSON writes the download body.
func WriteJSON(w io.Writer, r *Report) error {
	_, err := io.WriteString(w, r.RawJSON)
	return err
}
