package state

import (
	"context"

	"starbot/internal/components"
	"starbot/internal/config"
	"starbot/internal/core"
	"starbot/internal/server"
)

// State is everything a running process needs after startup.
type State struct {
	Config   *config.Config
	Registry *components.Registry
	Routes   []*core.Route
	Bot      *core.Bot
}

func NewState(cfg *config.Config, registry *components.Registry, routes []*core.Route, bot *core.Bot) *State {
	return &State{
		Config:   cfg,
		Registry: registry,
		Routes:   routes,
		Bot:      bot,
	}
}

// Server returns the HTTP server, or nil if none was registered.
func (s *State) Server() *server.Server {
	comp, ok := s.Registry.Lookup(components.ServerComponentName)
	if !ok {
		return nil
	}
	return comp.(*components.ServerComponent).Server()
}

func (s *State) Close(ctx context.Context) error {
	return s.Registry.CloseAll(ctx)
}
