package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

const (
	postsPath = "/posts"

	// publishUserID is the fixed author id sent with published quotes.
	publishUserID = 1
)

// PostsClientConfig configures the posts adapter.
type PostsClientConfig struct {
	// Client reaches the posts API. Its BaseURL is the API root.
	Client *clients.Client

	// Category is stamped on every fetched quote. Defaults to domain.ServerCategory.
	Category string

	Clock  func() time.Time
	Logger *slog.Logger
}

// PostsClient reads and writes quotes through a JSONPlaceholder-style posts
// API. It implements ports.QuoteSource, ports.QuotePublisher and
// ports.HealthChecker.
type PostsClient struct {
	BaseAdapter

	category string
	now      func() time.Time
	logger   *slog.Logger
}

// NewPostsClient creates the adapter. Panics if Client is nil.
func NewPostsClient(cfg PostsClientConfig) *PostsClient {
	if cfg.Client == nil {
		panic("acl.NewPostsClient: Client is required")
	}

	c := &PostsClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.ServiceName()),
		category:    cfg.Category,
		now:         cfg.Clock,
		logger:      cfg.Logger,
	}

	if c.category == "" {
		c.category = domain.ServerCategory
	}

	if c.now == nil {
		c.now = time.Now
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// postDTO is one element of GET /posts. Never leaves this package.
type postDTO struct {
	UserID int64  `json:"userId"`
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// newPostDTO is the body of POST /posts.
type newPostDTO struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int64  `json:"userId"`
}

// FetchBatch returns the first limit posts as quotes: title becomes the
// text, the configured category is applied and UpdatedAt is the fetch time.
func (c *PostsClient) FetchBatch(ctx context.Context, limit int) ([]domain.Quote, error) {
	c.logger.Log(ctx, logging.LevelTrace, "fetching posts", slog.Int("limit", limit))

	body, err := c.Get(ctx, postsPath, "fetch posts")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]postDTO](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	if limit >= 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	stamp := domain.Timestamp(c.now())

	quotes, err := TranslateSlice(posts, func(p postDTO) (domain.Quote, error) {
		return c.translate(p, stamp)
	})
	if err != nil {
		return nil, domain.NewFormatError(c.ServiceName(), err.Error(), nil)
	}

	c.logger.DebugContext(ctx, "fetched posts", slog.Int("count", len(quotes)))

	return quotes, nil
}

func (c *PostsClient) translate(p postDTO, stamp time.Time) (domain.Quote, error) {
	if err := ValidatePositive(p.ID, "id"); err != nil {
		return domain.Quote{}, err
	}

	text := strings.TrimSpace(p.Title)
	if text == "" {
		return domain.Quote{}, domain.NewValidationErrorWithValue("title", "is blank", p.ID)
	}

	return domain.Quote{
		ID:        p.ID,
		Text:      text,
		Category:  c.category,
		UpdatedAt: stamp,
	}, nil
}

// PublishQuote posts q to the remote endpoint. The response body is
// discarded: the remote side does not persist posts.
func (c *PostsClient) PublishQuote(ctx context.Context, q domain.Quote) error {
	payload, err := json.Marshal(newPostDTO{Title: q.Text, Body: q.Category, UserID: publishUserID})
	if err != nil {
		return fmt.Errorf("encoding post: %w", err)
	}

	body, err := c.Post(ctx, postsPath, bytes.NewReader(payload), "publish quote")
	if err != nil {
		return err
	}

	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()

	c.logger.DebugContext(ctx, "quote published", slog.Int64("quote_id", q.ID))

	return nil
}

// Name returns the health check name for this client.
func (c *PostsClient) Name() string {
	return c.ServiceName()
}

// Check reports the source unhealthy while its circuit is open and otherwise
// probes a single post.
func (c *PostsClient) Check(ctx context.Context) error {
	if snap := c.client.CircuitBreakerSnapshot(); snap.State == clients.StateOpen {
		return domain.NewUnavailableError(c.ServiceName(),
			fmt.Sprintf("circuit open since %s", snap.LastFailure.Format(time.RFC3339)))
	}

	body, err := c.Get(ctx, postsPath+"/1", "health probe")
	if err != nil {
		return err
	}

	_, _ = io.Copy(io.Discard, body)

	return body.Close()
}
