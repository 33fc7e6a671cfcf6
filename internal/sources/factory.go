package sources

import (
	"fmt"

	"starbot/internal/types"
)

// New selects the Source implementation for the account's source kind.
func New(account *types.Account) (types.Source, error) {
	spec := account.Source

	switch spec.Kind {
	case types.RepoStars:
		if spec.Username == "" {
			return nil, types.NewConfigurationError(account.Name, "source.username", "is required for repo_stars")
		}
		return NewGitHubStarsSource(account.Name, spec.Username, spec.APIURL, spec.Token, spec.Limit), nil

	case types.BookmarkFeed:
		if spec.FeedURL == "" {
			return nil, types.NewConfigurationError(account.Name, "source.feed_url", "is required for bookmark_feed")
		}
		return NewBookmarkFeedSource(account.Name, spec.FeedURL, spec.Limit), nil

	default:
		return nil, types.NewConfigurationError(account.Name, "source.type", fmt.Sprintf("unsupported source type %q", spec.Kind))
	}
}
