package components

import (
	"context"
	"fmt"

	"starbot/internal/server"
	"starbot/internal/storage"
)

type ServerComponent struct {
	cfg      server.Config
	feeds    []server.FeedInfo
	registry *Registry
	server   *server.Server
}

func NewServerComponent(cfg server.Config, registry *Registry) *ServerComponent {
	return &ServerComponent{
		cfg:      cfg,
		registry: registry,
	}
}

func (c *ServerComponent) Name() string {
	return ServerComponentName
}

func (c *ServerComponent) Dependencies() []string {
	return []string{StorageComponentName}
}

// RegisterFeed publishes an account's feed destination over HTTP.
func (c *ServerComponent) RegisterFeed(account, title string) {
	c.feeds = append(c.feeds, server.FeedInfo{Account: account, Title: title})
}

func (c *ServerComponent) Validate() error {
	if c.cfg.Port < 1 || c.cfg.Port > 65535 {
		return fmt.Errorf("server: port %d is out of range", c.cfg.Port)
	}
	return nil
}

func (c *ServerComponent) Initialize(ctx context.Context) error {
	var posts storage.PostStore
	if len(c.feeds) > 0 {
		store := c.registry.Get(StorageComponentName).(*StorageComponent).Store()
		posts = store.Posts()
	}

	c.server = server.New(c.cfg, posts, c.feeds)
	return nil
}

// Close is a no-op; the server stops when the context passed to Run ends.
func (c *ServerComponent) Close(ctx context.Context) error {
	return nil
}

func (c *ServerComponent) Server() *server.Server {
	return c.server
}
