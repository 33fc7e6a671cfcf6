package sources

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"starbot/internal/types"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const feedUserAgent = "Mozilla/5.0 (compatible; starbot/1.0)"

// BookmarkFeedSource reads an RSS or Atom bookmark feed. Entries keep the
// order the feed publishes them in, which is expected to be newest first.
type BookmarkFeedSource struct {
	name     string
	feedURL  string
	parser   *gofeed.Parser
	maxItems int
}

func NewBookmarkFeedSource(name string, feedURL string, maxItems int) *BookmarkFeedSource {
	if maxItems == 0 {
		maxItems = 30
	}

	parser := gofeed.NewParser()
	parser.UserAgent = feedUserAgent
	parser.Client = &http.Client{Timeout: 30 * time.Second}

	return &BookmarkFeedSource{
		name:     name,
		feedURL:  feedURL,
		parser:   parser,
		maxItems: maxItems,
	}
}

func (r *BookmarkFeedSource) Name() string {
	return r.name
}

func (r *BookmarkFeedSource) Fetch(ctx context.Context) ([]types.Item, error) {
	slog.DebugContext(ctx, "Feed source fetching feed", "source", r.name, "feed_url", r.feedURL)

	feed, err := r.parser.ParseURLWithContext(r.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	limit := min(r.maxItems, len(feed.Items))
	items := make([]types.Item, 0, limit)
	for _, feedItem := range feed.Items[:limit] {
		item, ok := convertToItem(feedItem)
		if !ok {
			slog.DebugContext(ctx, "Feed source skipping untitled entry", "source", r.name, "link", feedItem.Link)
			continue
		}
		items = append(items, item)
	}

	slog.DebugContext(ctx, "Feed source retrieved items", "source", r.name, "count", len(items))
	return items, nil
}

func convertToItem(feedItem *gofeed.Item) (types.Item, bool) {
	name := itemName(feedItem.Title)
	if name == "" {
		return types.Item{}, false
	}

	description := feedItem.Description
	if description == "" {
		description = feedItem.Content
	}

	return types.Item{
		Name:        name,
		URL:         feedItem.Link,
		Description: stripHTML(description),
	}, true
}

// itemName turns a title into a single, length-capped token. The
// checkpoint is read back as the first word of the last post, so a name
// with spaces or one cut by the message budget would never match again.
func itemName(title string) string {
	return types.ItemName(strings.Join(strings.Fields(stripHTML(title)), "_"))
}

var htmlStripper = bluemonday.StrictPolicy()

// stripHTML removes HTML tags, decodes entities and folds whitespace.
func stripHTML(s string) string {
	s = htmlStripper.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
