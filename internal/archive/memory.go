package archive

import (
	"context"
	"fmt"
	"io"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/report"
)

// MemoryStore keeps the most recently used reports in process memory.
type MemoryStore struct {
	cache *lru.Cache[string, *report.Report]
}

// NewMemoryStore creates a store bounded to maxReports entries.
func NewMemoryStore(maxReports int) (*MemoryStore, error) {
	cache, err := lru.New[string, *report.Report](maxReports)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Save(ctx context.Context, r *report.Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	s.cache.Add(r.ID, r)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*report.Report, error) {
	r, ok := s.cache.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]*report.Report, error) {
	limit, offset = normalizePage(limit, offset)

	var all []*report.Report
	for _, id := range s.cache.Keys() {
		// Peek keeps listing from changing eviction order.
		if r, ok := s.cache.Peek(id); ok {
			all = append(all, r)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	return int64(s.cache.Len()), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

func (s *MemoryStore) ExportJSON(ctx context.Context, w io.Writer) error {
	return exportAll(ctx, s, w)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
