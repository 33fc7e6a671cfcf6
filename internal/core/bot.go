package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultInterval = time.Hour

// Bot is the scheduler: it submits one check per route immediately and
// then on every tick of interval.
type Bot struct {
	name       string
	dispatcher *Dispatcher
	routes     []*Route
	interval   time.Duration
	runOnce    bool
	mu         sync.RWMutex
	running    bool
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type BotConfig struct {
	Name       string
	Dispatcher *Dispatcher
	Routes     []*Route
	Interval   time.Duration
	RunOnce    bool
}

func NewBot(config BotConfig) *Bot {
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Dispatcher == nil {
		config.Dispatcher = NewDispatcher(DispatcherConfig{QueueSize: len(config.Routes)})
	}

	return &Bot{
		name:       config.Name,
		dispatcher: config.Dispatcher,
		routes:     config.Routes,
		interval:   config.Interval,
		runOnce:    config.RunOnce,
		stopCh:     make(chan struct{}),
	}
}

// Start runs until ctx is cancelled or Stop is called. In run-once mode it
// returns after every route has completed a single cycle.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	b.running = true
	b.mu.Unlock()
	defer b.markStopped()

	b.dispatcher.Start(ctx)
	defer b.dispatcher.Stop()

	slog.InfoContext(ctx, "Bot started",
		"bot", b.name,
		"routes", len(b.routes),
		"interval", b.interval,
		"run_once", b.runOnce,
	)

	if b.runOnce {
		return b.runOnceMode(ctx)
	}

	return b.runContinuousMode(ctx)
}

func (b *Bot) runOnceMode(ctx context.Context) error {
	b.Tick(ctx)
	b.dispatcher.Wait()
	return nil
}

func (b *Bot) runContinuousMode(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stopCh:
			return nil
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick submits one check per route and returns how many were accepted.
func (b *Bot) Tick(ctx context.Context) int {
	accepted := 0
	for _, route := range b.routes {
		if b.dispatcher.Submit(route) {
			accepted++
		}
	}

	slog.DebugContext(ctx, "Scheduled checks", "bot", b.name, "accepted", accepted, "routes", len(b.routes))
	return accepted
}

// Stop ends the scheduling loop. It is safe to call more than once.
func (b *Bot) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	return nil
}

func (b *Bot) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func (b *Bot) Name() string {
	return b.name
}

func (b *Bot) markStopped() {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}
