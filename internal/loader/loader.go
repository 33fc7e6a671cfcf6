package loader

import (
	"context"
	"fmt"
	"log/slog"

	"starbot/internal/components"
	"starbot/internal/config"
	"starbot/internal/core"
	"starbot/internal/server"
	"starbot/internal/sources"
	"starbot/internal/state"
	"starbot/internal/targets"
	"starbot/internal/types"
)

type Loader struct {
	config *config.Config
	// serve controls whether the HTTP server component is registered.
	serve bool
}

func NewLoader(cfg *config.Config, serve bool) *Loader {
	return &Loader{
		config: cfg,
		serve:  serve,
	}
}

func (l *Loader) Initialize(ctx context.Context) (*state.State, error) {
	accounts := l.config.AccountRecords()

	registry, err := l.buildRegistry(accounts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Initializing all components")
	if err := registry.InitializeAll(ctx); err != nil {
		return nil, fmt.Errorf("component initialization failed: %w", err)
	}
	slog.InfoContext(ctx, "All components initialized successfully")

	routes, err := l.buildRoutes(accounts, registry)
	if err != nil {
		_ = registry.CloseAll(ctx)
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}

	bot := core.NewBot(core.BotConfig{
		Name:     l.config.Bot.Name,
		Routes:   routes,
		Interval: l.config.Interval(),
		RunOnce:  l.config.Bot.RunOnce,
		Dispatcher: core.NewDispatcher(core.DispatcherConfig{
			Workers:   l.config.Bot.Workers,
			QueueSize: len(routes),
			Publisher: core.NewPublisher(core.PublisherConfig{Delay: l.config.PostDelay()}),
		}),
	})

	return state.NewState(l.config, registry, routes, bot), nil
}

func (l *Loader) buildRegistry(accounts []*types.Account) (*components.Registry, error) {
	registry := components.NewRegistry()

	needsStorage := false
	for _, acct := range accounts {
		if acct.Destination.Kind == types.Feed {
			needsStorage = true
		}
	}

	if needsStorage || l.serve {
		if err := registry.Register(components.NewStorageComponent(l.config.Storage)); err != nil {
			return nil, fmt.Errorf("failed to register storage component: %w", err)
		}
	}

	if err := registry.Register(components.NewPlatformComponent(accounts)); err != nil {
		return nil, fmt.Errorf("failed to register platform component: %w", err)
	}

	if l.serve {
		serverComp := components.NewServerComponent(server.Config{
			Name:     l.config.Bot.Name,
			Port:     l.config.Server.Port,
			Greeting: l.config.Server.Greeting,
		}, registry)
		for _, acct := range accounts {
			if acct.Destination.Kind == types.Feed {
				serverComp.RegisterFeed(acct.Name, acct.Destination.Title)
			}
		}
		if err := registry.Register(serverComp); err != nil {
			return nil, fmt.Errorf("failed to register server component: %w", err)
		}
	}

	return registry, nil
}

func (l *Loader) buildRoutes(accounts []*types.Account, registry *components.Registry) ([]*core.Route, error) {
	routes := make([]*core.Route, 0, len(accounts))

	for _, acct := range accounts {
		source, err := sources.New(acct)
		if err != nil {
			return nil, fmt.Errorf("failed to create source for %s: %w", acct.Name, err)
		}

		timeline, err := targets.New(acct, registry)
		if err != nil {
			return nil, fmt.Errorf("failed to create destination for %s: %w", acct.Name, err)
		}

		routes = append(routes, &core.Route{
			Account:  acct,
			Source:   source,
			Timeline: timeline,
		})
		slog.Debug("Route configured",
			"account", acct.Name,
			"source", acct.Source.Kind,
			"destination", acct.Destination.Kind,
		)
	}

	return routes, nil
}
