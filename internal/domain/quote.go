// Package domain contains core business entities and rules.
package domain

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// CategoryAll is the wildcard filter that matches every quote.
	CategoryAll = "All"

	// ServerCategory is the category given to quotes pulled from the remote source.
	ServerCategory = "Server"
)

// Quote is one quotation in the collection.
// This is a domain entity - it has no knowledge of storage or wire formats.
type Quote struct {
	// ID identifies the quote. Unique within the collection after every add
	// and every reconcile.
	ID int64

	// Text is the quotation itself.
	Text string

	// Category is a free-form grouping label.
	Category string

	// UpdatedAt is when the record was created or last replaced.
	UpdatedAt time.Time
}

// IDString renders the id the way it appears in URLs and errors.
func (q Quote) IDString() string {
	return strconv.FormatInt(q.ID, 10)
}

// MatchesCategory reports whether the quote passes a category filter.
func (q Quote) MatchesCategory(category string) bool {
	return category == "" || category == CategoryAll || q.Category == category
}

// NewQuote trims and validates user input and builds a quote.
func NewQuote(id int64, text, category string, now time.Time) (Quote, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if text == "" {
		return Quote{}, NewValidationError("text", "must not be empty")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "must not be empty")
	}

	return Quote{ID: id, Text: text, Category: category, UpdatedAt: Timestamp(now)}, nil
}

// Timestamp truncates t to the millisecond precision quotes are stored with
// and normalises it to UTC.
func Timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return time.UnixMilli(t.UnixMilli()).UTC()
}

// IDGenerator issues quote ids from wall-clock milliseconds. Ids are strictly
// increasing even when several quotes are added within the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator. A nil clock uses time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}

	return &IDGenerator{now: now}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}

	g.last = id

	return id
}

// Observe makes sure future ids are greater than every id in quotes.
func (g *IDGenerator) Observe(quotes []Quote) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, q := range quotes {
		if q.ID > g.last {
			g.last = q.ID
		}
	}
}
