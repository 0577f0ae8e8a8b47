package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/report"
)

func newTestReport(t *testing.T, id string, created time.Time, drugs ...domain.Drug) *report.Report {
	t.Helper()
	if len(drugs) == 0 {
		drugs = []domain.Drug{domain.DrugCodeine}
	}
	results := make([]domain.AnalysisResult, len(drugs))
	for i, d := range drugs {
		results[i] = domain.AnalysisResult{
			PatientID:      "PATIENT_" + id,
			Drug:           string(d),
			RiskAssessment: domain.RiskAssessment{RiskLabel: domain.RiskSafe, ConfidenceScore: 0.9, Severity: domain.SeverityNone},
		}
	}
	raw, err := report.FormatResults(results)
	require.NoError(t, err)

	return &report.Report{
		ID:        id,
		CreatedAt: created.UTC(),
		FileName:  fmt.Sprintf("%s.vcf", id),
		Drugs:     drugs,
		Results:   results,
		RawJSON:   raw,
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Ping(ctx))

	older := newTestReport(t, "older", base, domain.DrugWarfarin, domain.DrugCodeine)
	newer := newTestReport(t, "newer", base.Add(time.Minute))

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	got, err := store.Get(ctx, "older")
	require.NoError(t, err)
	assert.Equal(t, "older.vcf", got.FileName)
	assert.Equal(t, []domain.Drug{domain.DrugWarfarin, domain.DrugCodeine}, got.Drugs)
	assert.Equal(t, older.RawJSON, got.RawJSON)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "WARFARIN", got.Results[0].Drug)
	assert.True(t, base.Equal(got.CreatedAt), "created_at round-trips")

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "older", page[0].ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))
	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 2, export.Count)

	require.NoError(t, store.Delete(ctx, "older"))
	require.NoError(t, store.Delete(ctx, "older"))
	_, err = store.Get(ctx, "older")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.Error(t, store.Save(ctx, &report.Report{}))
}
