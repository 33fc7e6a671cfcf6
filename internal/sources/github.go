package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"starbot/internal/types"
)

const githubUserAgent = "starbot (+https://github.com/starbot)"

// GitHubStarsSource lists the repositories a GitHub user has starred, most
// recently starred first.
type GitHubStarsSource struct {
	name       string
	username   string
	apiURL     string
	token      string
	limit      int
	httpClient *http.Client
}

type starredRepo struct {
	FullName    string  `json:"full_name"`
	HTMLURL     string  `json:"html_url"`
	Description *string `json:"description"`
}

func NewGitHubStarsSource(name, username, apiURL, token string, limit int) *GitHubStarsSource {
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	if limit == 0 {
		limit = 30
	}

	return &GitHubStarsSource{
		name:       name,
		username:   username,
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		limit:      limit,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *GitHubStarsSource) Name() string {
	return g.name
}

func (g *GitHubStarsSource) Fetch(ctx context.Context) ([]types.Item, error) {
	endpoint := fmt.Sprintf("%s/users/%s/starred?per_page=%d", g.apiURL, url.PathEscape(g.username), g.limit)
	slog.DebugContext(ctx, "GitHub source fetching stars", "source", g.name, "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", githubUserAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error reaching GitHub API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code from GitHub: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var repos []starredRepo
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("error decoding GitHub response: %w", err)
	}

	items := make([]types.Item, 0, len(repos))
	for _, repo := range repos {
		item := types.Item{
			Name: types.ItemName(repo.FullName),
			URL:  repo.HTMLURL,
		}
		if repo.Description != nil {
			item.Description = strings.TrimSpace(*repo.Description)
		}
		items = append(items, item)
	}

	slog.DebugContext(ctx, "GitHub source retrieved stars", "source", g.name, "count", len(items))
	return items, nil
}
