package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

// xCLIPost is the JSON shape emitted, one object per line, by the
// external X/Twitter scraping CLI this fetcher shells out to.
type xCLIPost struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Author      string `json:"author"`
}

// XFetcher drives an external CLI subprocess to collect posts matching a
// search query, normalizing its JSONL stdout into ContentItems.
type XFetcher struct {
	name      string
	command   string
	query     string
	cookie    string
	timeout   time.Duration
	logger    *zap.Logger
	runCmd    func(ctx context.Context, name string, args ...string) *exec.Cmd
}

var _ service.ContentFetcher = (*XFetcher)(nil)

// NewXFetcher constructs an XFetcher invoking command with query,
// authenticating via an optional session cookie.
func NewXFetcher(name, command, query, cookie string, logger *zap.Logger) *XFetcher {
	return &XFetcher{
		name:    name,
		command: command,
		query:   query,
		cookie:  cookie,
		timeout: 60 * time.Second,
		logger:  logger.With(zap.String("fetcher", name)),
		runCmd:  exec.CommandContext,
	}
}

// Name identifies this fetcher for logging and per-source error scoping.
func (f *XFetcher) Name() string { return f.name }

// Fetch runs the configured CLI and parses its JSONL stdout, skipping
// entries with an unparseable timestamp or outside window. Parsing stops
// at the first malformed line; entries decoded before it are kept.
func (f *XFetcher) Fetch(ctx context.Context, window service.TimeWindow) ([]entity.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	args := []string{
		"--query", f.query,
		"--since", window.Start.Format(time.RFC3339),
		"--until", window.End.Format(time.RFC3339),
	}
	cmd := f.runCmd(ctx, f.command, args...)
	if f.cookie != "" {
		cmd.Env = append(cmd.Environ(), "X_SESSION_COOKIE="+f.cookie)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("x fetcher subprocess %s: %w: %s", f.command, err, stderr.String())
	}

	var items []entity.ContentItem
	decoder := json.NewDecoder(&stdout)
	for decoder.More() {
		var post xCLIPost
		if err := decoder.Decode(&post); err != nil {
			f.logger.Warn("skipping malformed x post line", zap.Error(err))
			break
		}
		publishTime, err := time.Parse(time.RFC3339, post.PublishedAt)
		if err != nil {
			f.logger.Warn("skipping x post with unparseable timestamp", zap.String("id", post.ID), zap.Error(err))
			continue
		}
		if publishTime.Before(window.Start) || publishTime.After(window.End) {
			continue
		}
		item, err := entity.NewContentItem(post.Author, post.Text, post.URL, publishTime, f.name, entity.SourceX)
		if err != nil {
			f.logger.Warn("dropping invalid x item", zap.String("id", post.ID), zap.Error(err))
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}
