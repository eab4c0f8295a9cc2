//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	quotehttp "github.com/jsamuelsen/quotesync/internal/adapters/http"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/bootstrap"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
)

// remotePost is one record served by fakePosts.
type remotePost struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int64  `json:"userId"`
}

// fakePosts stands in for the remote posts API.
type fakePosts struct {
	server *httptest.Server

	mu    sync.Mutex
	posts []remotePost

	status    atomic.Int32
	failFirst atomic.Int32
	delay     atomic.Int64
	gets      atomic.Int32
	published atomic.Int32
}

func newFakePosts() *fakePosts {
	f := &fakePosts{}
	f.status.Store(http.StatusOK)
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))

	return f
}

func (f *fakePosts) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		f.published.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101}`))

		return
	}

	n := f.gets.Add(1)

	if d := time.Duration(f.delay.Load()); d > 0 {
		time.Sleep(d)
	}

	if n <= f.failFirst.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if status := int(f.status.Load()); status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(f.posts)
}

func (f *fakePosts) setPosts(posts ...remotePost) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.posts = posts
}

func numberedPosts(n int) []remotePost {
	posts := make([]remotePost, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, remotePost{ID: int64(i), Title: fmt.Sprintf("remote %d", i), Body: "b", UserID: 1})
	}

	return posts
}

// stack is a running quotesync wired exactly as cmd/service wires it.
type stack struct {
	remote *fakePosts
	app    *bootstrap.App
	server *httptest.Server
	dbPath string
}

type stackOptions struct {
	dbPath    string
	seed      bool
	scheduled bool
	interval  time.Duration
	auth      bool
}

func stackConfig(opts stackOptions, remoteURL string) (*config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}

	cfg.App.Environment = "test"
	cfg.Storage.Path = opts.dbPath
	cfg.Storage.Seed = opts.seed
	cfg.Services.Posts.BaseURL = remoteURL
	cfg.Client.Timeout = 2 * time.Second
	cfg.Client.Retry.MaxAttempts = 3
	cfg.Client.Retry.InitialInterval = 10 * time.Millisecond
	cfg.Client.Retry.MaxInterval = 100 * time.Millisecond
	cfg.Client.CircuitBreaker.MaxFailures = 3
	cfg.Client.CircuitBreaker.Timeout = time.Second
	cfg.Sync.Enabled = opts.scheduled
	cfg.Sync.RunOnStart = false
	cfg.Sync.CycleTimeout = 5 * time.Second

	if opts.interval > 0 {
		cfg.Sync.Interval = opts.interval
	}

	if opts.auth {
		cfg.Auth.Enabled = true
		cfg.Auth.JWKSEndpoint = "https://issuer.example.com/.well-known/jwks.json"
		cfg.Auth.Issuer = "https://issuer.example.com"
		cfg.Auth.Audience = "quotesync"
	}

	return cfg, cfg.Validate()
}

func startStack(remote *fakePosts, opts stackOptions) (*stack, error) {
	cfg, err := stackConfig(opts, remote.server.URL)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := bootstrap.New(context.Background(), cfg, logger, bootstrap.Options{Scheduled: true})
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	quotehttp.SetupRouter(engine, quotehttp.RouterConfig{
		Logger:        logger,
		AuthConfig:    &cfg.Auth,
		AppConfig:     &cfg.App,
		HealthHandler: handlers.NewHealthHandler(a.Health, a.Service, handlers.BuildInfo{Version: "integration"}),
		QuoteHandler:  handlers.NewQuoteHandler(a.Service),
		SyncHandler:   handlers.NewSyncHandler(a.Service),
		Timeout:       quotehttp.DefaultRequestTimeout,
	})

	if a.Scheduler != nil {
		a.Scheduler.Start(context.Background())
	}

	return &stack{remote: remote, app: a, server: httptest.NewServer(engine), dbPath: opts.dbPath}, nil
}

func (s *stack) stop() error {
	s.server.Close()
	return s.app.Close()
}

func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()

	remote := newFakePosts()
	t.Cleanup(remote.server.Close)

	if opts.dbPath == "" {
		opts.dbPath = filepath.Join(t.TempDir(), "quotes.db")
	}

	s, err := startStack(remote, opts)
	if err != nil {
		t.Fatalf("starting stack: %v", err)
	}

	t.Cleanup(func() { _ = s.stop() })

	return s
}
