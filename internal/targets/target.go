package targets

import (
	"fmt"

	"starbot/internal/components"
	"starbot/internal/types"

	blueskypkg "starbot/internal/targets/bluesky"
	discordpkg "starbot/internal/targets/discord"
	feedpkg "starbot/internal/targets/feed"
)

// New builds the destination timeline for account from the initialized
// components in registry.
func New(account *types.Account, registry *components.Registry) (types.Timeline, error) {
	dst := account.Destination

	switch dst.Kind {
	case types.Bluesky:
		platform := registry.Get(components.PlatformComponentName).(*components.PlatformComponent).Bluesky(account.Name)
		if platform == nil {
			return nil, fmt.Errorf("no bluesky session for account %s", account.Name)
		}
		return blueskypkg.New(account.Name, platform, dst.Languages), nil

	case types.Discord:
		platform := registry.Get(components.PlatformComponentName).(*components.PlatformComponent).Discord(account.Name)
		if platform == nil {
			return nil, fmt.Errorf("no discord session for account %s", account.Name)
		}
		return discordpkg.New(account.Name, platform, dst.ChannelID), nil

	case types.Feed:
		storeComp := registry.Get(components.StorageComponentName).(*components.StorageComponent)
		var notifier feedpkg.Notifier
		if comp, ok := registry.Lookup(components.ServerComponentName); ok {
			if srv := comp.(*components.ServerComponent).Server(); srv != nil {
				notifier = srv
			}
		}
		return feedpkg.New(account.Name, dst.Title, storeComp.Store().Posts(), storeComp.Retention(), notifier), nil

	default:
		return nil, types.NewConfigurationError(account.Name, "destination.type", fmt.Sprintf("unsupported destination type %q", dst.Kind))
	}
}
