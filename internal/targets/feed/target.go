package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"starbot/internal/storage"
	"starbot/internal/types"
)

// Notifier is told when an account's feed has changed.
type Notifier interface {
	Invalidate(account string)
}

// Target appends messages to the local post store. The HTTP server
// syndicates them per account.
type Target struct {
	name      string
	title     string
	posts     storage.PostStore
	retention time.Duration
	notifier  Notifier
}

// New creates a feed target. Posts older than retention are pruned after
// every new post; 0 keeps them all. notifier may be nil.
func New(name, title string, posts storage.PostStore, retention time.Duration, notifier Notifier) *Target {
	return &Target{
		name:      name,
		title:     title,
		posts:     posts,
		retention: retention,
		notifier:  notifier,
	}
}

func (t *Target) Name() string {
	return t.name
}

func (t *Target) Title() string {
	return t.title
}

func (t *Target) RecentPosts(ctx context.Context, count int) ([]types.Post, error) {
	entries, err := t.posts.Recent(ctx, t.name, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed history: %w", err)
	}

	posts := make([]types.Post, 0, len(entries))
	for _, e := range entries {
		posts = append(posts, types.Post{Text: e.Text})
	}
	return posts, nil
}

func (t *Target) PostMessage(ctx context.Context, text string) error {
	entry, err := t.posts.Append(ctx, t.name, text)
	if err != nil {
		slog.ErrorContext(ctx, "Feed target failed to insert post", "target", t.name, "error", err)
		return err
	}

	if t.retention > 0 {
		pruned, err := t.posts.Prune(ctx, t.name, t.retention)
		if err != nil {
			slog.WarnContext(ctx, "Feed target failed to prune old posts", "target", t.name, "error", err)
		} else if pruned > 0 {
			slog.DebugContext(ctx, "Feed target pruned old posts", "target", t.name, "pruned", pruned)
		}
	}

	if t.notifier != nil {
		t.notifier.Invalidate(t.name)
	}

	slog.DebugContext(ctx, "Feed target inserted post", "target", t.name, "post_id", entry.ID)
	return nil
}
