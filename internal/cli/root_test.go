package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starbot/internal/storage/sqlite"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "starbot dev (none)\n", out)
}

func TestValidateCommand(t *testing.T) {
	path := writeConfig(t, `
[bot]
interval = "30m"

[accounts.making.source]
type = "repo_stars"
username = "making"

[accounts.making.destination]
type = "feed"

[accounts.links.source]
type = "bookmark_feed"
feed_url = "https://example.com/bookmarks.rss"

[accounts.links.destination]
type = "discord"
bot_token = "token"
channel_id = "123"
`)

	out, err := execute(t, "--config", path, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "interval 30m0s")
	assert.Contains(t, out, "links")
	assert.Contains(t, out, "bookmark_feed")
	assert.Contains(t, out, "making")
	assert.Contains(t, out, "repo_stars")
}

func TestValidateCommandRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
[accounts.making.source]
type = "repo_stars"

[accounts.making.destination]
type = "carrier_pigeon"
`)

	_, err := execute(t, "--config", path, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.username")
	assert.Contains(t, err.Error(), "destination.type")
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "validate")
	require.Error(t, err)
}

func TestOnceCommandPublishesNewStars(t *testing.T) {
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"full_name": "spf13/cobra", "html_url": "https://github.com/spf13/cobra", "description": "CLI framework"},
			{"full_name": "gorilla/mux", "html_url": "https://github.com/gorilla/mux", "description": null}
		]`))
	}))
	defer github.Close()

	dbPath := filepath.Join(t.TempDir(), "starbot.db")
	path := writeConfig(t, fmt.Sprintf(`
[bot]
post_delay = "0s"

[logging]
level = "error"

[storage]
path = %q

[accounts.making.source]
type = "repo_stars"
username = "making"
api_url = %q

[accounts.making.destination]
type = "feed"
`, dbPath, github.URL))

	_, err := execute(t, "--config", path, "once")
	require.NoError(t, err)

	// A second pass finds the checkpoint and posts nothing.
	_, err = execute(t, "--config", path, "once")
	require.NoError(t, err)

	store, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close(context.Background())

	posts, err := store.Posts().Recent(context.Background(), "making", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "spf13/cobra CLI framework https://github.com/spf13/cobra", posts[0].Text)
	assert.Equal(t, "gorilla/mux https://github.com/gorilla/mux", posts[1].Text)
}
