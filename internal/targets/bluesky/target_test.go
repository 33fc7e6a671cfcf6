package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starbot/internal/platforms"
	"starbot/internal/types"
)

const authorFeed = `{"feed":[
  {
    "post": {
      "uri": "at://did:plc:other/app.bsky.feed.post/1", "cid": "c1",
      "author": {"did": "did:plc:other", "handle": "other.bsky.social"},
      "record": {"$type": "app.bsky.feed.post", "text": "someone/else https://example.com", "createdAt": "2026-01-03T00:00:00Z"},
      "indexedAt": "2026-01-03T00:00:00Z"
    },
    "reason": {"$type": "app.bsky.feed.defs#reasonRepost", "by": {"did": "did:plc:me", "handle": "starbot.test"}, "indexedAt": "2026-01-03T00:00:00Z"}
  },
  {
    "post": {
      "uri": "at://did:plc:me/app.bsky.feed.post/2", "cid": "c2",
      "author": {"did": "did:plc:me", "handle": "starbot.test"},
      "record": {"$type": "app.bsky.feed.post", "text": "spf13/cobra A Commander https://github.com/spf13/cobra", "createdAt": "2026-01-02T00:00:00Z"},
      "indexedAt": "2026-01-02T00:00:00Z"
    }
  },
  {
    "post": {
      "uri": "at://did:plc:me/app.bsky.feed.post/3", "cid": "c3",
      "author": {"did": "did:plc:me", "handle": "starbot.test"},
      "record": {"$type": "app.bsky.feed.post", "text": "gorilla/mux https://github.com/gorilla/mux", "createdAt": "2026-01-01T00:00:00Z"},
      "indexedAt": "2026-01-01T00:00:00Z"
    }
  }
]}`

// fakePDS is a minimal XRPC server: it issues numbered sessions and can be
// told to reject the first token as expired.
type fakePDS struct {
	mu           sync.Mutex
	sessions     int
	expireFirst  bool
	feedQuery    string
	createdInput map[string]any
}

func (f *fakePDS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/xrpc/com.atproto.server.createSession":
		f.sessions++
		fmt.Fprintf(w, `{"accessJwt":"access-%d","refreshJwt":"refresh-%d","handle":"starbot.test","did":"did:plc:me"}`, f.sessions, f.sessions)
		return
	}

	if f.expireFirst && r.Header.Get("Authorization") == "Bearer access-1" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"ExpiredToken","message":"Token has expired"}`)
		return
	}

	switch r.URL.Path {
	case "/xrpc/app.bsky.feed.getAuthorFeed":
		f.feedQuery = r.URL.RawQuery
		fmt.Fprint(w, authorFeed)
	case "/xrpc/com.atproto.repo.createRecord":
		f.createdInput = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&f.createdInput)
		fmt.Fprint(w, `{"uri":"at://did:plc:me/app.bsky.feed.post/4","cid":"c4"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"MethodNotImplemented"}`)
	}
}

func newTestTarget(t *testing.T, pds *fakePDS) *Target {
	t.Helper()
	srv := httptest.NewServer(pds)
	t.Cleanup(srv.Close)

	platform, err := platforms.NewBlueskyPlatform("making", types.DestinationSpec{
		Identifier: "starbot.test",
		Password:   "app-password",
		Host:       srv.URL,
	})
	require.NoError(t, err)
	require.NoError(t, platform.Initialize(context.Background()))
	assert.Equal(t, "did:plc:me", platform.DID())

	return New("making", platform, []string{"en"})
}

func TestRecentPostsSkipsReposts(t *testing.T) {
	pds := &fakePDS{}
	target := newTestTarget(t, pds)

	posts, err := target.RecentPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "spf13/cobra A Commander https://github.com/spf13/cobra", posts[0].Text)

	assert.Contains(t, pds.feedQuery, "actor=did%3Aplc%3Ame")
	assert.Contains(t, pds.feedQuery, "filter=posts_no_replies")

	posts, err = target.RecentPosts(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestPostMessageAddsLinkFacet(t *testing.T) {
	pds := &fakePDS{}
	target := newTestTarget(t, pds)

	text := "spf13/cobra A Commander https://github.com/spf13/cobra"
	require.NoError(t, target.PostMessage(context.Background(), text))

	require.NotNil(t, pds.createdInput)
	assert.Equal(t, "app.bsky.feed.post", pds.createdInput["collection"])
	assert.Equal(t, "did:plc:me", pds.createdInput["repo"])

	record := pds.createdInput["record"].(map[string]any)
	assert.Equal(t, text, record["text"])
	assert.Equal(t, []any{"en"}, record["langs"])

	facets := record["facets"].([]any)
	require.Len(t, facets, 1)
	facet := facets[0].(map[string]any)
	index := facet["index"].(map[string]any)
	assert.EqualValues(t, len("spf13/cobra A Commander "), index["byteStart"])
	assert.EqualValues(t, len(text), index["byteEnd"])
	feature := facet["features"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://github.com/spf13/cobra", feature["uri"])
}

func TestExpiredTokenTriggersRelogin(t *testing.T) {
	pds := &fakePDS{expireFirst: true}
	target := newTestTarget(t, pds)

	posts, err := target.RecentPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 2, pds.sessions)
}

func TestPostFromText(t *testing.T) {
	post := PostFromText("héllo/wörld Ünïcode https://example.com/x")
	rt := post.Into()

	assert.Equal(t, "héllo/wörld Ünïcode https://example.com/x", rt.Text)
	require.Len(t, rt.Facets, 1)
	assert.EqualValues(t, len("héllo/wörld Ünïcode "), rt.Facets[0].Index.ByteStart)
	assert.EqualValues(t, len(rt.Text), rt.Facets[0].Index.ByteEnd)

	noLinks := PostFromText("no links here")
	assert.Empty(t, noLinks.Into().Facets)
}

func TestPostMessageFitsGraphemeLimit(t *testing.T) {
	pds := &fakePDS{}
	target := newTestTarget(t, pds)

	link := "https://example.com/" + strings.Repeat("p", 230)
	content := "owner/repo " + strings.Repeat("語", 102) + "..."
	text := content + " " + link
	require.Greater(t, uniseg.GraphemeClusterCount(text), MaxGraphemes)

	require.NoError(t, target.PostMessage(context.Background(), text))

	record := pds.createdInput["record"].(map[string]any)
	posted := record["text"].(string)
	assert.LessOrEqual(t, uniseg.GraphemeClusterCount(posted), MaxGraphemes)
	assert.True(t, strings.HasPrefix(posted, content+" example.com/"))

	facets := record["facets"].([]any)
	require.Len(t, facets, 1)
	facet := facets[0].(map[string]any)
	index := facet["index"].(map[string]any)
	assert.EqualValues(t, len(content+" "), index["byteStart"])
	assert.EqualValues(t, len(posted), index["byteEnd"])
	feature := facet["features"].([]any)[0].(map[string]any)
	assert.Equal(t, link, feature["uri"])
}

func TestPostFit(t *testing.T) {
	t.Run("short post untouched", func(t *testing.T) {
		post := PostFromText("spf13/cobra https://github.com/spf13/cobra")
		assert.False(t, post.Fit(MaxGraphemes))
		assert.Equal(t, "spf13/cobra https://github.com/spf13/cobra", post.Into().Text)
	})

	t.Run("longest link shortened first", func(t *testing.T) {
		post := PostFromText("a/b see https://short.example/x and https://long.example/" + strings.Repeat("z", 60))
		require.True(t, post.Fit(60))

		rt := post.Into()
		assert.LessOrEqual(t, uniseg.GraphemeClusterCount(rt.Text), 60)
		assert.True(t, strings.HasPrefix(rt.Text, "a/b see https://short.example/x and long.example/"))
		assert.True(t, strings.HasSuffix(rt.Text, "..."))
		require.Len(t, rt.Facets, 2)
		assert.Equal(t, "https://long.example/"+strings.Repeat("z", 60), rt.Facets[1].Features[0].RichtextFacet_Link.Uri)
	})

	t.Run("text dropped from the end once links are minimal", func(t *testing.T) {
		post := PostFromText("owner/name " + strings.Repeat("word ", 20) + "https://example.com/" + strings.Repeat("q", 40))
		require.True(t, post.Fit(30))

		rt := post.Into()
		assert.LessOrEqual(t, uniseg.GraphemeClusterCount(rt.Text), 30)
		assert.Equal(t, "owner/name", strings.Fields(rt.Text)[0])
	})
}
