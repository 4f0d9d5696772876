package service

import (
	"context"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

// MarketSnapshotService fetches a live market brief via a web-browsing LLM
// call, caches it with a TTL, and never surfaces an error to callers: on
// exhausted retries it returns a fallback snapshot instead.
type MarketSnapshotService interface {
	// Get returns the cached snapshot if useCached is true and the cache
	// is fresh; otherwise it refreshes (single-flighted across concurrent
	// callers) and returns the new value.
	Get(ctx context.Context, useCached bool) entity.MarketSnapshot
}
