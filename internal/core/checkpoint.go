package core

import (
	"context"
	"strings"

	"starbot/internal/types"
)

// ResolveCheckpoint recovers the name of the last published item from the
// first word of the destination's newest own post. An empty token means no
// checkpoint is known.
func ResolveCheckpoint(ctx context.Context, timeline types.Timeline) (string, error) {
	posts, err := timeline.RecentPosts(ctx, 1)
	if err != nil {
		return "", types.NewTransientFetchError(timeline.Name(), "checkpoint", err)
	}
	if len(posts) == 0 {
		return "", nil
	}

	fields := strings.Fields(posts[0].Text)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}
