package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"

	"starbot/internal/cache"
	"starbot/internal/storage"
)

const (
	TypeRSS  = "rss"
	TypeAtom = "atom"
	TypeJSON = "json"
)

type CacheKey struct {
	Account string
	Type    string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.Account, k.Type)
}

func NewCache(config cache.CacheConfig) *cache.Cache[CacheKey, string] {
	return cache.NewCache[CacheKey, string](config, CacheKey.String)
}

var contentTypes = map[string]string{
	TypeRSS:  "application/rss+xml; charset=utf-8",
	TypeAtom: "application/atom+xml; charset=utf-8",
	TypeJSON: "application/feed+json; charset=utf-8",
}

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account, format := vars["account"], vars["format"]

	info, ok := s.feeds[account]
	if !ok || s.posts == nil {
		http.NotFound(w, r)
		return
	}

	key := CacheKey{Account: account, Type: format}
	body, found := s.cache.Get(key)
	if !found {
		entries, err := s.posts.Recent(r.Context(), account, s.cfg.FeedSize)
		if err != nil {
			slog.ErrorContext(r.Context(), "Feed server failed to list posts", "account", account, "error", err)
			http.Error(w, "failed to load feed", http.StatusInternalServerError)
			return
		}

		feed := buildFeed(info, baseURL(r), entries)
		body, err = render(feed, format)
		if err != nil {
			slog.ErrorContext(r.Context(), "Feed server failed to render feed", "account", account, "format", format, "error", err)
			http.Error(w, "failed to render feed", http.StatusInternalServerError)
			return
		}
		s.cache.Set(key, body)
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Cache-Control", "public, max-age=300")
	fmt.Fprint(w, body)
}

func render(feed *feeds.Feed, format string) (string, error) {
	switch format {
	case TypeRSS:
		return feed.ToRss()
	case TypeAtom:
		return feed.ToAtom()
	case TypeJSON:
		return feed.ToJSON()
	default:
		return "", fmt.Errorf("unsupported feed format %q", format)
	}
}

func buildFeed(info FeedInfo, base string, entries []storage.PostEntry) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       info.Title,
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/feeds/%s.%s", base, info.Account, TypeRSS)},
		Description: fmt.Sprintf("Posts published by starbot for %s", info.Account),
		Id:          fmt.Sprintf("%s/feeds/%s", base, info.Account),
		Items:       make([]*feeds.Item, 0, len(entries)),
	}

	for _, e := range entries {
		title := e.Text
		if fields := strings.Fields(e.Text); len(fields) > 0 {
			title = fields[0]
		}

		item := &feeds.Item{
			Id:          fmt.Sprintf("%s/feeds/%s/%d", base, info.Account, e.ID),
			Title:       title,
			Description: e.Text,
			Created:     e.CreatedAt,
		}
		if links := urlRe.FindAllString(e.Text, -1); len(links) > 0 {
			item.Link = &feeds.Link{Href: links[len(links)-1]}
		} else {
			item.Link = &feeds.Link{Href: feed.Link.Href}
		}
		feed.Items = append(feed.Items, item)
	}

	if len(feed.Items) > 0 {
		feed.Created = feed.Items[0].Created
		feed.Updated = feed.Items[0].Created
	}

	return feed
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
