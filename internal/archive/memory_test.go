package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore(10)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, newTestReport(t, fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Second))))
	}

	_, err = store.Get(ctx, "r0")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStore_InvalidSize(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}

func TestMemoryStore_ListPastEnd(t *testing.T) {
	store, err := NewMemoryStore(5)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), newTestReport(t, "only", time.Now())))

	list, err := store.List(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}
