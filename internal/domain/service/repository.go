package service

import (
	"context"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

// Repository is the persistence boundary for the pipeline: item upserts,
// unanalyzed-item queries, and result storage. Expected to be backed by a
// single-writer embedded store, so implementations provide their own
// atomicity; callers never hold a lock across an I/O call into it.
type Repository interface {
	// UpsertItems inserts new items and leaves existing ones (matched by
	// ID) untouched, so re-running a fetch is idempotent.
	UpsertItems(ctx context.Context, items []entity.ContentItem) error

	// ListUnanalyzedItems returns items inside window that have no stored
	// AnalysisResult yet.
	ListUnanalyzedItems(ctx context.Context, window TimeWindow) ([]entity.ContentItem, error)

	// StoreResults persists results, upserting by SourceItemID so that
	// re-analysis of the same item overwrites rather than duplicates.
	StoreResults(ctx context.Context, results []entity.AnalysisResult) error

	// SaveRun upserts a RunRecord by RunID.
	SaveRun(ctx context.Context, run entity.RunRecord) error

	// ListRecentRuns returns up to limit most recent RunRecords, most
	// recent first.
	ListRecentRuns(ctx context.Context, limit int) ([]entity.RunRecord, error)

	// DeleteOlderThan removes items/results/runs whose timestamps predate
	// the retention cutoff; grounds the retention-sweep maintenance task.
	DeleteOlderThan(ctx context.Context, cutoffDays int) error
}
