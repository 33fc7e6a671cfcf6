package components

import (
	"context"
	"fmt"
	"time"

	"starbot/internal/config"
	"starbot/internal/storage"
	"starbot/internal/storage/sqlite"
)

// StorageComponent owns the sqlite database holding feed destination posts.
type StorageComponent struct {
	cfg   config.StorageConfig
	store storage.Store
}

func NewStorageComponent(cfg config.StorageConfig) *StorageComponent {
	return &StorageComponent{
		cfg: cfg,
	}
}

func (c *StorageComponent) Name() string {
	return StorageComponentName
}

func (c *StorageComponent) Dependencies() []string {
	return []string{}
}

func (c *StorageComponent) Validate() error {
	if c.cfg.Path == "" {
		return fmt.Errorf("storage: database path is required")
	}
	if c.cfg.Type != "" && c.cfg.Type != "sqlite" {
		return fmt.Errorf("storage: unsupported storage type %q", c.cfg.Type)
	}
	return nil
}

func (c *StorageComponent) Initialize(ctx context.Context) error {
	store, err := sqlite.Open(ctx, c.cfg.Path)
	if err != nil {
		return fmt.Errorf("storage: failed to initialize store: %w", err)
	}

	c.store = store
	return nil
}

func (c *StorageComponent) Close(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Close(ctx)
}

func (c *StorageComponent) Store() storage.Store {
	return c.store
}

// Retention is how long feed destination posts are kept; 0 keeps all.
func (c *StorageComponent) Retention() time.Duration {
	return c.cfg.RetentionPeriod()
}
