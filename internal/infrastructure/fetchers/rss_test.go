package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/service"
)

func feedServer(t *testing.T, items string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test Feed</title>%s</channel></rss>`, items)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rssItem(title, link string, pubDate time.Time) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><description>body</description></item>`,
		title, link, pubDate.Format(time.RFC1123Z))
}

func TestRSSFetcher_FiltersItemsOutsideWindow(t *testing.T) {
	now := time.Now().UTC()
	srv := feedServer(t, rssItem("in window", "https://feed.example/1", now.Add(-time.Hour))+
		rssItem("too old", "https://feed.example/2", now.Add(-48*time.Hour)))

	f := NewRSSFetcher("feed1", []string{srv.URL}, zap.NewNop())
	items, err := f.Fetch(context.Background(), service.TimeWindow{Start: now.Add(-24 * time.Hour), End: now})

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "in window", items[0].Title)
}

func TestRSSFetcher_FeedFailureDoesNotAbortOtherFeeds(t *testing.T) {
	now := time.Now().UTC()
	ok := feedServer(t, rssItem("survives", "https://feed.example/ok", now.Add(-time.Hour)))

	f := NewRSSFetcher("feeds", []string{"http://127.0.0.1:1/unreachable", ok.URL}, zap.NewNop())
	items, err := f.Fetch(context.Background(), service.TimeWindow{Start: now.Add(-24 * time.Hour), End: now})

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "survives", items[0].Title)
}
