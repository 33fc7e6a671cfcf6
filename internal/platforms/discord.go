package platforms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"starbot/internal/types"
)

// DiscordAPI is the subset of the Discord REST API the bot relies on.
// *discordgo.Session satisfies it.
type DiscordAPI interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordPlatform struct {
	account  string
	botToken string
	api      DiscordAPI

	mu    sync.Mutex
	botID string
}

func NewDiscordPlatform(account string, spec types.DestinationSpec) (*DiscordPlatform, error) {
	if spec.BotToken == "" {
		return nil, types.NewConfigurationError(account, "destination.bot_token", "is required for discord")
	}

	return &DiscordPlatform{
		account:  account,
		botToken: spec.BotToken,
	}, nil
}

// NewDiscordPlatformWithAPI wraps an existing API client, e.g. a session
// shared with other code or a test double.
func NewDiscordPlatformWithAPI(account string, api DiscordAPI) *DiscordPlatform {
	return &DiscordPlatform{account: account, api: api}
}

// Initialize creates the REST session and resolves the bot's own user ID.
// The gateway is never opened; the bot only reads and sends messages. A
// rejected token is a ConfigurationError; any other lookup failure is
// logged and retried on first use.
func (p *DiscordPlatform) Initialize(ctx context.Context) error {
	if p.api == nil {
		session, err := discordgo.New("Bot " + p.botToken)
		if err != nil {
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		p.api = session
	}

	_, err := p.BotID(ctx)
	switch {
	case err == nil:
		return nil
	case isTokenRejected(err):
		return types.NewConfigurationError(p.account, "destination.bot_token", err.Error())
	default:
		slog.WarnContext(ctx, "Discord bot lookup failed, will retry on first check", "account", p.account, "error", err)
		return nil
	}
}

func (p *DiscordPlatform) Close(ctx context.Context) error {
	if session, ok := p.api.(*discordgo.Session); ok {
		return session.Close()
	}
	return nil
}

func (p *DiscordPlatform) API() DiscordAPI {
	return p.api
}

// BotID is the user ID messages sent by this bot are authored by. It is
// looked up once and remembered.
func (p *DiscordPlatform) BotID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.botID != "" {
		return p.botID, nil
	}

	me, err := p.api.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to look up discord bot user: %w", err)
	}
	p.botID = me.ID

	slog.DebugContext(ctx, "Discord session ready", "bot_user", me.Username, "bot_id", me.ID)
	return p.botID, nil
}

func isTokenRejected(err error) bool {
	var re *discordgo.RESTError
	return errors.As(err, &re) && re.Response != nil &&
		(re.Response.StatusCode == http.StatusUnauthorized || re.Response.StatusCode == http.StatusForbidden)
}
