package platforms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"

	"starbot/internal/types"
)

const defaultBlueskyHost = "https://bsky.social"

// BlueskyPlatform owns one authenticated XRPC session for a Bluesky account.
type BlueskyPlatform struct {
	account    string
	identifier string
	password   string
	host       string

	mu     sync.Mutex
	client *xrpc.Client
}

func NewBlueskyPlatform(account string, spec types.DestinationSpec) (*BlueskyPlatform, error) {
	if spec.Identifier == "" {
		return nil, types.NewConfigurationError(account, "destination.identifier", "is required for bluesky")
	}
	if spec.Password == "" {
		return nil, types.NewConfigurationError(account, "destination.password", "is required for bluesky")
	}

	host := spec.Host
	if host == "" {
		host = defaultBlueskyHost
	}

	return &BlueskyPlatform{
		account:    account,
		identifier: spec.Identifier,
		password:   spec.Password,
		host:       host,
	}, nil
}

// Initialize logs in. A rejected login is a ConfigurationError; any other
// failure is logged and the login is retried on first use.
func (p *BlueskyPlatform) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.login(ctx)
	switch {
	case err == nil:
		return nil
	case isAuthRejected(err):
		return types.NewConfigurationError(p.account, "destination.password", err.Error())
	default:
		slog.WarnContext(ctx, "Bluesky login failed, will retry on first check", "account", p.account, "error", err)
		return nil
	}
}

// login must be called with p.mu held.
func (p *BlueskyPlatform) login(ctx context.Context) error {
	client := &xrpc.Client{
		Host: p.host,
	}

	auth, err := atproto.ServerCreateSession(ctx, client, &atproto.ServerCreateSession_Input{
		Identifier: p.identifier,
		Password:   p.password,
	})
	if err != nil {
		return fmt.Errorf("failed to authenticate with bluesky: %w", err)
	}

	client.Auth = &xrpc.AuthInfo{
		AccessJwt:  auth.AccessJwt,
		RefreshJwt: auth.RefreshJwt,
		Handle:     auth.Handle,
		Did:        auth.Did,
	}

	p.client = client
	slog.DebugContext(ctx, "Bluesky session created", "handle", auth.Handle, "did", auth.Did)

	return nil
}

// Do runs fn with the current session. If the access token has expired the
// session is recreated once and fn retried.
func (p *BlueskyPlatform) Do(ctx context.Context, fn func(c *xrpc.Client) error) error {
	client, err := p.session(ctx)
	if err != nil {
		return err
	}

	err = fn(client)
	if !isExpiredToken(err) {
		return err
	}

	slog.InfoContext(ctx, "Bluesky access token expired, logging in again", "identifier", p.identifier)

	p.mu.Lock()
	if p.client == client {
		if loginErr := p.login(ctx); loginErr != nil {
			p.mu.Unlock()
			return loginErr
		}
	}
	client = p.client
	p.mu.Unlock()

	return fn(client)
}

func (p *BlueskyPlatform) session(ctx context.Context) (*xrpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		if err := p.login(ctx); err != nil {
			return nil, err
		}
	}
	return p.client, nil
}

// DID returns the account's DID, or "" before the first login.
func (p *BlueskyPlatform) DID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || p.client.Auth == nil {
		return ""
	}
	return p.client.Auth.Did
}

func (p *BlueskyPlatform) Close(ctx context.Context) error {
	return nil
}

// isAuthRejected reports whether the server refused the credentials, as
// opposed to being unreachable or failing.
func isAuthRejected(err error) bool {
	var re *xrpc.Error
	if errors.As(err, &re) && (re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden) {
		return true
	}
	var xe *xrpc.XRPCError
	return errors.As(err, &xe) && (xe.ErrStr == "AuthenticationRequired" || xe.ErrStr == "AccountTakedown")
}

func isExpiredToken(err error) bool {
	var xe *xrpc.XRPCError
	return errors.As(err, &xe) && xe.ErrStr == "ExpiredToken"
}
