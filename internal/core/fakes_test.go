package core

import (
	"context"
	"errors"
	"sync"

	"starbot/internal/types"
)

type fakeSource struct {
	name  string
	items []types.Item
	err   error
	block chan struct{}
	panic bool
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(ctx context.Context) ([]types.Item, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.panic {
		panic("source exploded")
	}
	return s.items, s.err
}

// memTimeline keeps posts newest first.
type memTimeline struct {
	name      string
	mu        sync.Mutex
	posts     []string
	readErr   error
	failAfter int // PostMessage fails once this many posts were accepted; 0 disables
}

func (t *memTimeline) Name() string { return t.name }

func (t *memTimeline) RecentPosts(ctx context.Context, count int) ([]types.Post, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.readErr != nil {
		return nil, t.readErr
	}
	out := make([]types.Post, 0, count)
	for _, p := range t.posts {
		if len(out) == count {
			break
		}
		out = append(out, types.Post{Text: p})
	}
	return out, nil
}

func (t *memTimeline) PostMessage(ctx context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failAfter > 0 && len(t.posts) >= t.failAfter {
		return errors.New("destination rejected post")
	}
	t.posts = append([]string{text}, t.posts...)
	return nil
}

func (t *memTimeline) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.posts...)
}

func newRoute(name string, src types.Source, tl types.Timeline) *Route {
	return &Route{
		Account:  &types.Account{Name: name},
		Source:   src,
		Timeline: tl,
	}
}

func items(names ...string) []types.Item {
	out := make([]types.Item, 0, len(names))
	for _, n := range names {
		out = append(out, types.Item{Name: n, URL: "https://github.com/" + n})
	}
	return out
}
