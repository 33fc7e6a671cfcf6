package components

import (
	"context"
	"errors"
	"fmt"

	"starbot/internal/platforms"
	"starbot/internal/types"
)

// PlatformComponent holds one authenticated session per account whose
// destination is a remote platform.
type PlatformComponent struct {
	accounts []*types.Account
	bluesky  map[string]*platforms.BlueskyPlatform
	discord  map[string]*platforms.DiscordPlatform
}

func NewPlatformComponent(accounts []*types.Account) *PlatformComponent {
	return &PlatformComponent{
		accounts: accounts,
		bluesky:  make(map[string]*platforms.BlueskyPlatform),
		discord:  make(map[string]*platforms.DiscordPlatform),
	}
}

func (c *PlatformComponent) Name() string {
	return PlatformComponentName
}

func (c *PlatformComponent) Dependencies() []string {
	return []string{}
}

func (c *PlatformComponent) Validate() error {
	var errs []error
	for _, acct := range c.accounts {
		switch acct.Destination.Kind {
		case types.Bluesky:
			if _, err := platforms.NewBlueskyPlatform(acct.Name, acct.Destination); err != nil {
				errs = append(errs, err)
			}
		case types.Discord:
			if _, err := platforms.NewDiscordPlatform(acct.Name, acct.Destination); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *PlatformComponent) Initialize(ctx context.Context) error {
	for _, acct := range c.accounts {
		switch acct.Destination.Kind {
		case types.Bluesky:
			bluesky, err := platforms.NewBlueskyPlatform(acct.Name, acct.Destination)
			if err != nil {
				return fmt.Errorf("failed to create bluesky platform for %s: %w", acct.Name, err)
			}
			if err := bluesky.Initialize(ctx); err != nil {
				return fmt.Errorf("bluesky platform initialization failed for %s: %w", acct.Name, err)
			}
			c.bluesky[acct.Name] = bluesky

		case types.Discord:
			discord, err := platforms.NewDiscordPlatform(acct.Name, acct.Destination)
			if err != nil {
				return fmt.Errorf("failed to create discord platform for %s: %w", acct.Name, err)
			}
			if err := discord.Initialize(ctx); err != nil {
				return fmt.Errorf("discord platform initialization failed for %s: %w", acct.Name, err)
			}
			c.discord[acct.Name] = discord
		}
	}
	return nil
}

func (c *PlatformComponent) Close(ctx context.Context) error {
	var errs []error
	for _, p := range c.discord {
		errs = append(errs, p.Close(ctx))
	}
	for _, p := range c.bluesky {
		errs = append(errs, p.Close(ctx))
	}
	return errors.Join(errs...)
}

func (c *PlatformComponent) Bluesky(account string) *platforms.BlueskyPlatform {
	return c.bluesky[account]
}

func (c *PlatformComponent) Discord(account string) *platforms.DiscordPlatform {
	return c.discord[account]
}
