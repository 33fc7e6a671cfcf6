package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"starbot/internal/types"
)

const (
	DefaultName      = "starbot"
	DefaultInterval  = "1h"
	DefaultPostDelay = "2s"
	DefaultWorkers   = 8
	DefaultPort      = 8080
	DefaultGreeting  = "Hello GitHub Starbot"
	DefaultDBPath    = "./starbot.db"
	DefaultGitHubAPI = "https://api.github.com"
	DefaultBskyHost  = "https://bsky.social"
	DefaultLimit     = 30
)

var accountNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Config struct {
	Bot      BotConfig                `toml:"bot"`
	Server   ServerConfig             `toml:"server"`
	Logging  LoggingConfig            `toml:"logging"`
	Storage  StorageConfig            `toml:"storage"`
	Accounts map[string]AccountConfig `toml:"accounts"`
}

type BotConfig struct {
	Name      string `toml:"name"`
	Interval  string `toml:"interval"`
	PostDelay string `toml:"post_delay"`
	Workers   int    `toml:"workers"`
	RunOnce   bool   `toml:"run_once"`
}

type ServerConfig struct {
	Port     int    `toml:"port"`
	Greeting string `toml:"greeting"`
}

type LoggingConfig struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

type StorageConfig struct {
	Type string `toml:"type"`
	Path string `toml:"path"`
	// Retention prunes feed destination posts older than this. Empty keeps
	// everything.
	Retention string `toml:"retention"`
}

type AccountConfig struct {
	Source      SourceConfig      `toml:"source"`
	Destination DestinationConfig `toml:"destination"`
}

type SourceConfig struct {
	Type     string `toml:"type"`
	Username string `toml:"username"`
	FeedURL  string `toml:"feed_url"`
	APIURL   string `toml:"api_url"`
	Token    string `toml:"token"`
	Limit    int    `toml:"limit"`
}

type DestinationConfig struct {
	Type       string   `toml:"type"`
	Identifier string   `toml:"identifier"`
	Password   string   `toml:"password"`
	Host       string   `toml:"host"`
	Languages  []string `toml:"languages"`
	BotToken   string   `toml:"bot_token"`
	ChannelID  string   `toml:"channel_id"`
	Title      string   `toml:"title"`
}

// Load reads the TOML file at path, expanding ${VAR} references from the
// environment first, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(os.ExpandEnv(string(data)))
}

func Parse(data string) (*Config, error) {
	var config Config
	if _, err := toml.Decode(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	var errs []error

	if config.Bot.Name == "" {
		config.Bot.Name = DefaultName
	}

	if config.Bot.Interval == "" {
		config.Bot.Interval = DefaultInterval
	}
	if d, err := time.ParseDuration(config.Bot.Interval); err != nil {
		errs = append(errs, types.NewConfigurationError("", "bot.interval", err.Error()))
	} else if d <= 0 {
		errs = append(errs, types.NewConfigurationError("", "bot.interval", "must be positive"))
	}

	if config.Bot.PostDelay == "" {
		config.Bot.PostDelay = DefaultPostDelay
	}
	if d, err := time.ParseDuration(config.Bot.PostDelay); err != nil {
		errs = append(errs, types.NewConfigurationError("", "bot.post_delay", err.Error()))
	} else if d < 0 {
		errs = append(errs, types.NewConfigurationError("", "bot.post_delay", "must not be negative"))
	}

	if config.Bot.Workers == 0 {
		config.Bot.Workers = DefaultWorkers
	}
	if config.Bot.Workers < 0 {
		errs = append(errs, types.NewConfigurationError("", "bot.workers", "must be positive"))
	}

	if config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}
	if config.Server.Greeting == "" {
		config.Server.Greeting = DefaultGreeting
	}
	if err := validatePort(config.Server.Port); err != nil {
		errs = append(errs, err)
	}

	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if f := strings.ToLower(config.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, types.NewConfigurationError("", "logging.format", fmt.Sprintf("unsupported format %q", config.Logging.Format)))
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "sqlite"
	}
	if config.Storage.Type != "sqlite" {
		errs = append(errs, types.NewConfigurationError("", "storage.type", fmt.Sprintf("unsupported storage type %q", config.Storage.Type)))
	}
	if config.Storage.Path == "" {
		config.Storage.Path = DefaultDBPath
	}
	if config.Storage.Retention != "" {
		if d, err := time.ParseDuration(config.Storage.Retention); err != nil {
			errs = append(errs, types.NewConfigurationError("", "storage.retention", err.Error()))
		} else if d < 0 {
			errs = append(errs, types.NewConfigurationError("", "storage.retention", "must not be negative"))
		}
	}

	if len(config.Accounts) == 0 {
		errs = append(errs, types.NewConfigurationError("", "accounts", "at least one account must be configured"))
	}

	for _, name := range config.AccountNames() {
		acct := config.Accounts[name]
		errs = append(errs, validateAccount(name, &acct)...)
		config.Accounts[name] = acct
	}

	return errors.Join(errs...)
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return types.NewConfigurationError("", "server.port", fmt.Sprintf("%d is out of range", port))
	}
	return nil
}

func validateAccount(name string, acct *AccountConfig) []error {
	var errs []error
	fail := func(field, reason string) {
		errs = append(errs, types.NewConfigurationError(name, field, reason))
	}

	if !accountNameRe.MatchString(name) {
		fail("name", "may only contain letters, digits, '-' and '_'")
	}

	src := &acct.Source
	if src.Limit == 0 {
		src.Limit = DefaultLimit
	}
	if src.Limit < 0 {
		fail("source.limit", "must be positive")
	}

	switch types.SourceKind(src.Type) {
	case types.RepoStars:
		if src.Username == "" {
			fail("source.username", "is required for repo_stars")
		}
		if src.APIURL == "" {
			src.APIURL = DefaultGitHubAPI
		}
		if !isAbsoluteURL(src.APIURL) {
			fail("source.api_url", "must be an absolute URL")
		}
	case types.BookmarkFeed:
		if src.FeedURL == "" {
			fail("source.feed_url", "is required for bookmark_feed")
		} else if !isAbsoluteURL(src.FeedURL) {
			fail("source.feed_url", "must be an absolute URL")
		}
	case "":
		fail("source.type", "is required")
	default:
		fail("source.type", fmt.Sprintf("unsupported source type %q", src.Type))
	}

	dst := &acct.Destination
	switch types.DestinationKind(dst.Type) {
	case types.Bluesky:
		if dst.Identifier == "" {
			fail("destination.identifier", "is required for bluesky")
		}
		if dst.Password == "" {
			fail("destination.password", "is required for bluesky")
		}
		if dst.Host == "" {
			dst.Host = DefaultBskyHost
		}
	case types.Discord:
		if dst.BotToken == "" {
			fail("destination.bot_token", "is required for discord")
		}
		if dst.ChannelID == "" {
			fail("destination.channel_id", "is required for discord")
		}
	case types.Feed:
		if dst.Title == "" {
			dst.Title = name + " stars"
		}
	case "":
		fail("destination.type", "is required")
	default:
		fail("destination.type", fmt.Sprintf("unsupported destination type %q", dst.Type))
	}

	return errs
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// AccountNames returns configured account names in a stable order.
func (c *Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *Config) Interval() time.Duration {
	return ParseDuration(c.Bot.Interval, time.Hour)
}

func (c *Config) PostDelay() time.Duration {
	return ParseDuration(c.Bot.PostDelay, 2*time.Second)
}

// AccountRecords converts the validated account tables into immutable records.
func (c *Config) AccountRecords() []*types.Account {
	accounts := make([]*types.Account, 0, len(c.Accounts))
	for _, name := range c.AccountNames() {
		acct := c.Accounts[name]
		accounts = append(accounts, &types.Account{
			Name: name,
			Source: types.SourceSpec{
				Kind:     types.SourceKind(acct.Source.Type),
				Username: acct.Source.Username,
				FeedURL:  acct.Source.FeedURL,
				APIURL:   acct.Source.APIURL,
				Token:    acct.Source.Token,
				Limit:    acct.Source.Limit,
			},
			Destination: types.DestinationSpec{
				Kind:       types.DestinationKind(acct.Destination.Type),
				Identifier: acct.Destination.Identifier,
				Password:   acct.Destination.Password,
				Host:       acct.Destination.Host,
				Languages:  slices.Clone(acct.Destination.Languages),
				BotToken:   acct.Destination.BotToken,
				ChannelID:  acct.Destination.ChannelID,
				Title:      acct.Destination.Title,
			},
		})
	}
	return accounts
}

// RetentionPeriod is the parsed retention, or 0 to keep every post.
func (s StorageConfig) RetentionPeriod() time.Duration {
	return ParseDuration(s.Retention, 0)
}

func ParseDuration(s string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return defaultValue
}
