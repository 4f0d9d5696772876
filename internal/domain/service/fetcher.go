package service

import (
	"context"
	"time"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

// TimeWindow bounds a fetch to [Start, End], both UTC.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// ContentFetcher is implemented by each ingestion source (RSS, X/Twitter).
// Fetchers are external collaborators: a failing fetcher never aborts a
// run, it simply contributes zero items.
type ContentFetcher interface {
	// Name identifies the fetcher for logging and per-source error scoping.
	Name() string
	// Fetch returns items published within window. Implementations must
	// honor ctx cancellation and return promptly on deadline.
	Fetch(ctx context.Context, window TimeWindow) ([]entity.ContentItem, error)
}
