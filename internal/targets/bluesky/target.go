package bluesky

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"starbot/internal/platforms"
	"starbot/internal/types"
)

const (
	authorFeedFilter = "posts_no_replies"
	maxFeedPage      = 100
)

type Target struct {
	name      string
	platform  *platforms.BlueskyPlatform
	languages []string
}

func New(name string, platform *platforms.BlueskyPlatform, languages []string) *Target {
	return &Target{
		name:      name,
		platform:  platform,
		languages: languages,
	}
}

func (t *Target) Name() string {
	return t.name
}

// RecentPosts returns the account's own latest posts, newest first. Reposts
// and pinned posts are skipped so the first entry is always authored here.
func (t *Target) RecentPosts(ctx context.Context, count int) ([]types.Post, error) {
	limit := min(max(count*5, 20), maxFeedPage)

	var posts []types.Post
	err := t.platform.Do(ctx, func(c *xrpc.Client) error {
		out, err := bsky.FeedGetAuthorFeed(ctx, c, c.Auth.Did, "", authorFeedFilter, false, int64(limit))
		if err != nil {
			return err
		}

		posts = posts[:0]
		for _, entry := range out.Feed {
			if len(posts) == count {
				break
			}
			if entry.Reason != nil || entry.Post == nil || entry.Post.Record == nil {
				continue
			}
			if entry.Post.Author != nil && entry.Post.Author.Did != c.Auth.Did {
				continue
			}
			record, ok := entry.Post.Record.Val.(*bsky.FeedPost)
			if !ok {
				continue
			}
			posts = append(posts, types.Post{Text: record.Text})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read bluesky author feed: %w", err)
	}

	return posts, nil
}

func (t *Target) PostMessage(ctx context.Context, text string) error {
	post := PostFromText(text)
	if post.Fit(MaxGraphemes) {
		slog.InfoContext(ctx, "Bluesky post shortened to fit", "target", t.name, "limit", MaxGraphemes)
	}
	record := BuildPost(post.Into(), t.languages)

	var resp *atproto.RepoCreateRecord_Output
	err := t.platform.Do(ctx, func(c *xrpc.Client) error {
		var err error
		resp, err = atproto.RepoCreateRecord(ctx, c, &atproto.RepoCreateRecord_Input{
			Collection: "app.bsky.feed.post",
			Repo:       c.Auth.Did,
			Record:     &util.LexiconTypeDecoder{Val: record},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create bluesky post: %w", err)
	}

	slog.DebugContext(ctx, "Bluesky post created", "target", t.name, "uri", resp.Uri, "cid", resp.Cid)
	return nil
}
