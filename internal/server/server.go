package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"starbot/internal/cache"
	"starbot/internal/storage"
)

type (
	// Server serves the liveness endpoint and syndicates feed destinations.
	Server struct {
		*http.Server

		cfg     Config
		posts   storage.PostStore
		feeds   map[string]FeedInfo
		cache   *cache.Cache[CacheKey, string]
		started time.Time
	}

	Config struct {
		Name     string
		Port     int
		Greeting string
		FeedSize int
		CacheTTL time.Duration
	}

	// FeedInfo describes one account whose posts are syndicated.
	FeedInfo struct {
		Account string
		Title   string
	}
)

func New(cfg Config, posts storage.PostStore, feeds []FeedInfo) *Server {
	if cfg.FeedSize == 0 {
		cfg.FeedSize = 50
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}

	s := &Server{
		cfg:     cfg,
		posts:   posts,
		feeds:   make(map[string]FeedInfo, len(feeds)),
		cache:   NewCache(cache.CacheConfig{TTL: cfg.CacheTTL}),
		started: time.Now(),
	}
	for _, f := range feeds {
		s.feeds[f.Account] = f
	}

	r := mux.NewRouter()
	r.Use(AccessLogMiddleware)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/feeds/{account:[A-Za-z0-9_-]+}.{format:rss|atom|json}", s.handleFeed).Methods(http.MethodGet)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
	)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		Handler:      recovery(handlers.CompressHandler(r)),
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "HTTP server listening", "addr", s.Addr, "feeds", len(s.feeds))
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP server shutting down")
		return s.Shutdown(shutdownCtx)
	}
}

// Invalidate drops the rendered feeds for account.
func (s *Server) Invalidate(account string) {
	s.cache.InvalidatePrefix(account + ":")
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, s.cfg.Greeting)
}

type healthResp struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Feeds  int    `json:"feeds"`
	Uptime string `json:"uptime"`
	Time   string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResp{
		Status: "ok",
		Name:   s.cfg.Name,
		Feeds:  len(s.feeds),
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		slog.ErrorContext(r.Context(), "error writing response", "error", err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		writer := &respCodeWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(writer, r)

		slog.InfoContext(r.Context(), "request completed",
			"method", r.Method,
			"url", r.URL.String(),
			"duration", time.Since(start),
			"status_code", writer.code,
		)
	})
}

// To trap the response status code for logging later.
type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
