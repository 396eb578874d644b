package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

const (
	reportCacheSize = 64
	reportCacheTTL  = 5 * time.Minute
)

// ReportService produces the aggregated views the reporting UI reads. All
// sums are over the stored home-currency amount; original-currency fields
// never enter aggregation. Results are memoized per query shape; every
// cache key embeds a generation counter that writers bump, so a stale
// result is never served after a write.
type ReportService struct {
	repo       *storage.Repository
	timeseries *cache.LRU[[]core.TimeseriesBucket]
	breakdown  *cache.LRU[[]core.CategoryTotal]
	gen        atomic.Uint64
}

func NewReportService(repo *storage.Repository) *ReportService {
	return &ReportService{
		repo:       repo,
		timeseries: cache.NewLRU[[]core.TimeseriesBucket](reportCacheSize, reportCacheTTL),
		breakdown:  cache.NewLRU[[]core.CategoryTotal](reportCacheSize, reportCacheTTL),
	}
}

// Invalidate marks every cached report stale. Called by the write path
// after each committed change.
func (s *ReportService) Invalidate() {
	s.gen.Add(1)
}

// Timeseries returns income/expense sums per bucket over [start, end].
// Buckets without transactions are omitted; consumers needing a dense
// series zero-fill the gaps themselves.
func (s *ReportService) Timeseries(ctx context.Context, start, end core.Date, g core.Granularity, excludeRecurring bool) ([]core.TimeseriesBucket, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: timeseries range is required", core.ErrValidation)
	}

	key := fmt.Sprintf("%d|%s|%s|%s|%t", s.gen.Load(), start, end, g, excludeRecurring)
	if buckets, ok := s.timeseries.Get(key); ok {
		return buckets, nil
	}

	buckets, err := s.repo.Timeseries(ctx, start, end, g, excludeRecurring)
	if err != nil {
		return nil, err
	}

	s.timeseries.Set(key, buckets)
	return buckets, nil
}

// CategoryBreakdown returns per-category expense totals over [start, end],
// absolute values, largest first. Top-N collapsing is the consumer's job.
func (s *ReportService) CategoryBreakdown(ctx context.Context, start, end core.Date, excludeRecurring bool) ([]core.CategoryTotal, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: breakdown range is required", core.ErrValidation)
	}

	key := fmt.Sprintf("%d|%s|%s|%t", s.gen.Load(), start, end, excludeRecurring)
	if totals, ok := s.breakdown.Get(key); ok {
		return totals, nil
	}

	totals, err := s.repo.CategoryBreakdown(ctx, start, end, excludeRecurring)
	if err != nil {
		return nil, err
	}

	s.breakdown.Set(key, totals)
	return totals, nil
}

// MonthToDate sums the month of asOf from its first day through asOf.
func (s *ReportService) MonthToDate(ctx context.Context, asOf core.Date) (core.MTDSummary, error) {
	if asOf.IsZero() {
		asOf = core.Today()
	}
	return s.repo.MTDSummary(ctx, asOf)
}
