package archive

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

var reportColumns = []string{"id", "created_at", "file_name", "drugs", "raw_json"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store, mock
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	r := newTestReport(t, "abc", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), domain.DrugCodeine, domain.DrugWarfarin)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports (id, created_at, file_name, drugs, raw_json)")).
		WithArgs("abc", r.CreatedAt, "abc.vcf", "CODEINE,WARFARIN", r.RawJSON).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveError(t *testing.T) {
	store, mock := newMockStore(t)
	r := newTestReport(t, "abc", time.Now())

	mock.ExpectExec("INSERT INTO reports").WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestReport(t, "abc", created, domain.DrugSimvastatin)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1")).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("abc", created, "abc.vcf", "SIMVASTATIN", r.RawJSON))

	got, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []domain.Drug{domain.DrugSimvastatin}, got.Drugs)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "SIMVASTATIN", got.Results[0].Drug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, created_at, file_name, drugs, raw_json").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	newer := newTestReport(t, "newer", time.Now())
	older := newTestReport(t, "older", time.Now().Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(newer.ID, newer.CreatedAt, newer.FileName, "CODEINE", newer.RawJSON).
			AddRow(older.ID, older.CreatedAt, older.FileName, "CODEINE", older.RawJSON))

	list, err := store.List(context.Background(), 0, -1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCorruptRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("bad", time.Now(), "bad.vcf", "CODEINE", "{not json"))

	_, err := store.List(context.Background(), 5, 0)
	assert.Error(t, err)
}

func TestPostgresStore_CountAndDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1")).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, store.Delete(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ExportJSON(t *testing.T) {
	store, mock := newMockStore(t)
	r := newTestReport(t, "abc", time.Now())

	mock.ExpectQuery("SELECT id").
		WithArgs(maxExportLimit, 0).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(r.ID, r.CreatedAt, r.FileName, "CODEINE", r.RawJSON))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(context.Background(), &buf))
	assert.Contains(t, buf.String(), `"count": 1`)
	assert.Contains(t, buf.String(), `"id": "abc"`)
}

func TestPostgresStore_CloseRunsOwnerHook(t *testing.T) {
	store, mock := newMockStore(t)
	closed := false
	store.onClose = func() { closed = true }

	require.NoError(t, store.Close())
	assert.True(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PingUsesPoolHook(t *testing.T) {
	store, _ := newMockStore(t)
	assert.NoError(t, store.Ping(context.Background()))

	down := errors.New("pool unavailable")
	store.ping = func(context.Context) error { return down }
	assert.ErrorIs(t, store.Ping(context.Background()), down)
}
