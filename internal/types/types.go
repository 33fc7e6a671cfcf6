package types

import (
	"context"

	"golang.org/x/text/unicode/norm"
)

type SourceKind string

const (
	RepoStars    SourceKind = "repo_stars"
	BookmarkFeed SourceKind = "bookmark_feed"
)

type DestinationKind string

const (
	Bluesky DestinationKind = "bluesky"
	Discord DestinationKind = "discord"
	Feed    DestinationKind = "feed"
)

// Account pairs one monitored source with one posting destination. It is
// built once from configuration and never mutated afterwards.
type Account struct {
	Name        string
	Source      SourceSpec
	Destination DestinationSpec
}

type SourceSpec struct {
	Kind     SourceKind
	Username string
	FeedURL  string
	APIURL   string
	Token    string
	Limit    int
}

type DestinationSpec struct {
	Kind DestinationKind

	// bluesky
	Identifier string
	Password   string
	Host       string
	Languages  []string

	// discord
	BotToken  string
	ChannelID string

	// feed
	Title string
}

// Item is one candidate entry fetched from a source during a single poll
// cycle. Name is the dedup key and is compared by exact equality.
type Item struct {
	Name        string
	URL         string
	Description string
}

func (i Item) String() string {
	return i.Name
}

// MaxNameLength caps item names, in runes, below the message content budget
// so a formatted message always starts with the whole name.
const MaxNameLength = 100

// ItemName returns name in NFC form, cut to MaxNameLength runes. Names are
// compared against the first word of published messages, which are NFC
// normalised, so every source runs its names through here.
func ItemName(name string) string {
	runes := []rune(norm.NFC.String(name))
	if len(runes) > MaxNameLength {
		runes = runes[:MaxNameLength]
	}
	return string(runes)
}

// Post is one entry of a destination's own timeline.
type Post struct {
	Text string
}

// Source lists the current candidate items of an account, newest first.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// Timeline is the social capability every destination offers: reading back
// its own recent posts and publishing a new one.
type Timeline interface {
	Name() string
	RecentPosts(ctx context.Context, count int) ([]Post, error)
	PostMessage(ctx context.Context, text string) error
}
