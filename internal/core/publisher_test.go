package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starbot/internal/types"
)

// waitRecorder counts waits and records how many posts existed at each.
type waitRecorder struct {
	mu       sync.Mutex
	tl       *memTimeline
	waits    []time.Duration
	postsAt  []int
	cancelOn int
	cancel   context.CancelFunc
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.waits = append(w.waits, d)
	w.postsAt = append(w.postsAt, len(w.tl.snapshot()))
	n := len(w.waits)
	w.mu.Unlock()

	if w.cancel != nil && n == w.cancelOn {
		w.cancel()
	}
	return ctx.Err()
}

func TestPublishWaitsOnlyBetweenItems(t *testing.T) {
	tl := &memTimeline{name: "making"}
	rec := &waitRecorder{tl: tl}
	pub := NewPublisher(PublisherConfig{Delay: 2 * time.Second, Wait: rec.wait})

	batch := Batch{Route: newRoute("making", nil, tl), Items: items("a/1", "b/2", "c/3")}
	sent, err := pub.Publish(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.waits)
	assert.Equal(t, []int{1, 2}, rec.postsAt, "waits happen before items 2 and 3")

	assert.Equal(t, []string{
		"c/3 https://github.com/c/3",
		"b/2 https://github.com/b/2",
		"a/1 https://github.com/a/1",
	}, tl.snapshot())
}

func TestPublishSingleItemNeverWaits(t *testing.T) {
	tl := &memTimeline{name: "making"}
	rec := &waitRecorder{tl: tl}
	pub := NewPublisher(PublisherConfig{Delay: time.Second, Wait: rec.wait})

	sent, err := pub.Publish(context.Background(), Batch{Route: newRoute("making", nil, tl), Items: items("x/1")})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Empty(t, rec.waits)

	sent, err = pub.Publish(context.Background(), Batch{Route: newRoute("making", nil, tl)})
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, rec.waits)
}

func TestPublishAbortsOnFailure(t *testing.T) {
	tl := &memTimeline{name: "making", failAfter: 1}
	rec := &waitRecorder{tl: tl}
	pub := NewPublisher(PublisherConfig{Delay: time.Second, Wait: rec.wait})

	sent, err := pub.Publish(context.Background(), Batch{Route: newRoute("making", nil, tl), Items: items("a/1", "b/2", "c/3")})
	assert.Equal(t, 1, sent)
	require.Error(t, err)

	var pe *types.PublishError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "making", pe.Account)
	assert.Equal(t, "b/2", pe.Item)
	assert.Equal(t, 1, pe.Sent)

	assert.Equal(t, []string{"a/1 https://github.com/a/1"}, tl.snapshot())

	// The checkpoint is still a/1, so the next cycle re-detects b/2 and c/3.
	token, err := ResolveCheckpoint(context.Background(), tl)
	require.NoError(t, err)
	assert.Equal(t, []string{"b/2", "c/3"}, names(Delta(items("c/3", "b/2", "a/1"), token)))
}

func TestPublishStopsWhenContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tl := &memTimeline{name: "making"}
	rec := &waitRecorder{tl: tl, cancel: cancel, cancelOn: 1}
	pub := NewPublisher(PublisherConfig{Delay: time.Hour, Wait: rec.wait})

	sent, err := pub.Publish(ctx, Batch{Route: newRoute("making", nil, tl), Items: items("a/1", "b/2")})
	assert.Equal(t, 1, sent)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, tl.snapshot(), 1)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, SleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
