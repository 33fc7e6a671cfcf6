package core

import (
	"context"
	"log/slog"
	"time"

	"starbot/internal/logger"
	"starbot/internal/types"
)

const DefaultPostDelay = 2 * time.Second

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Publisher posts a batch to its route's timeline one item at a time.
type Publisher struct {
	delay time.Duration
	wait  WaitFunc
}

type PublisherConfig struct {
	// Delay is the pause between consecutive posts, usually DefaultPostDelay.
	Delay time.Duration
	// Wait defaults to SleepContext.
	Wait WaitFunc
}

func NewPublisher(cfg PublisherConfig) *Publisher {
	if cfg.Wait == nil {
		cfg.Wait = SleepContext
	}

	return &Publisher{
		delay: cfg.Delay,
		wait:  cfg.Wait,
	}
}

// Publish posts every item of batch in order, waiting the configured delay
// between consecutive posts. It stops at the first failure and returns a
// PublishError carrying the number of items already sent, so the next
// cycle resumes from the last item that made it out.
func (p *Publisher) Publish(ctx context.Context, batch Batch) (int, error) {
	account := batch.Route.Name()
	timeline := batch.Route.Timeline

	for i, item := range batch.Items {
		if i > 0 {
			if err := p.wait(ctx, p.delay); err != nil {
				return i, types.NewPublishError(account, item.Name, i, err)
			}
		}

		text := FormatMessage(item)
		if err := timeline.PostMessage(ctx, text); err != nil {
			return i, types.NewPublishError(account, item.Name, i, err)
		}

		slog.InfoContext(logger.Ctx(ctx, slog.String("item", item.Name)), "Posted item",
			"position", i+1,
			"batch_size", len(batch.Items),
		)
	}

	return len(batch.Items), nil
}

// SleepContext waits for d, returning early with ctx.Err() if ctx ends.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
