// Package fetchers implements ContentFetcher for RSS feeds and the
// external-CLI-driven X/Twitter source.
package fetchers

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

// RSSFetcher fetches and normalizes items from a fixed set of RSS feed
// URLs, within window, tolerating a per-feed failure without aborting.
type RSSFetcher struct {
	name    string
	urls    []string
	parser  *gofeed.Parser
	timeout time.Duration
	logger  *zap.Logger
}

var _ service.ContentFetcher = (*RSSFetcher)(nil)

// NewRSSFetcher constructs an RSSFetcher named name pulling from urls.
func NewRSSFetcher(name string, urls []string, logger *zap.Logger) *RSSFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 60 * time.Second}
	return &RSSFetcher{
		name:    name,
		urls:    urls,
		parser:  parser,
		timeout: 60 * time.Second,
		logger:  logger.With(zap.String("fetcher", name)),
	}
}

// Name identifies this fetcher for logging and per-source error scoping.
func (f *RSSFetcher) Name() string { return f.name }

// Fetch pulls every configured feed URL, normalizing entries published
// within window. A failing feed is logged and skipped; it does not
// abort the fetcher's overall result.
func (f *RSSFetcher) Fetch(ctx context.Context, window service.TimeWindow) ([]entity.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var items []entity.ContentItem
	for _, url := range f.urls {
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			f.logger.Warn("rss feed fetch failed, skipping", zap.String("url", url), zap.Error(err))
			continue
		}

		for _, fi := range feed.Items {
			publishTime := resolvePublishTime(fi)
			if publishTime.Before(window.Start) || publishTime.After(window.End) {
				continue
			}
			item, err := entity.NewContentItem(fi.Title, contentOf(fi), fi.Link, publishTime, f.name, entity.SourceRSS)
			if err != nil {
				f.logger.Warn("dropping invalid rss item", zap.String("url", fi.Link), zap.Error(err))
				continue
			}
			items = append(items, *item)
		}
	}
	return items, nil
}

func resolvePublishTime(fi *gofeed.Item) time.Time {
	if fi.PublishedParsed != nil {
		return fi.PublishedParsed.UTC()
	}
	if fi.UpdatedParsed != nil {
		return fi.UpdatedParsed.UTC()
	}
	return time.Now().UTC()
}

func contentOf(fi *gofeed.Item) string {
	if fi.Content != "" {
		return fi.Content
	}
	return fi.Description
}
