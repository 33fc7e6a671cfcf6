package discord

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"starbot/internal/platforms"
	"starbot/internal/types"
)

const (
	// historyPage is the largest page the channel messages endpoint returns.
	historyPage = 100
	// historyPages caps how far back RecentPosts looks for the bot's own
	// messages: historyPage*historyPages channel messages.
	historyPages = 10

	// MaxMessageLength is Discord's limit on message content, in characters.
	MaxMessageLength = 2000
	ellipsis         = "..."
)

type Target struct {
	name      string
	platform  *platforms.DiscordPlatform
	channelID string
}

func New(name string, platform *platforms.DiscordPlatform, channelID string) *Target {
	return &Target{
		name:      name,
		platform:  platform,
		channelID: channelID,
	}
}

func (d *Target) Name() string {
	return d.name
}

// RecentPosts returns up to count messages authored by the bot in the
// channel, newest first. History is paged backwards until enough are found
// or historyPages pages have been read.
func (d *Target) RecentPosts(ctx context.Context, count int) ([]types.Post, error) {
	botID, err := d.platform.BotID(ctx)
	if err != nil {
		return nil, err
	}

	posts := make([]types.Post, 0, count)
	before := ""
	for page := 0; page < historyPages && len(posts) < count; page++ {
		messages, err := d.platform.API().ChannelMessages(d.channelID, historyPage, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to read discord channel history: %w", err)
		}

		for _, m := range messages {
			if len(posts) == count {
				break
			}
			if m.Author == nil || m.Author.ID != botID {
				continue
			}
			posts = append(posts, types.Post{Text: m.Content})
		}

		if len(messages) < historyPage {
			break
		}
		before = messages[len(messages)-1].ID
	}

	return posts, nil
}

func (d *Target) PostMessage(ctx context.Context, text string) error {
	if utf8.RuneCountInString(text) > MaxMessageLength {
		slog.InfoContext(ctx, "Discord message shortened to fit", "target", d.name, "limit", MaxMessageLength)
		text = string([]rune(text)[:MaxMessageLength-len(ellipsis)]) + ellipsis
	}

	msg, err := d.platform.API().ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}

	slog.DebugContext(ctx, "Discord message sent", "target", d.name, "channel_id", d.channelID, "message_id", msg.ID)
	return nil
}
