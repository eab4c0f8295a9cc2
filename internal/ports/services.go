// Package ports defines the contracts between the quote application core and
// the outside world. Adapters implement them; internal/app depends only on
// these interfaces and on domain types.
//
// Every method takes a context first and reports failures with domain errors
// (ErrNotFound, ErrUnavailable, ErrFormat).
package ports

import (
	"context"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Storage keys shared by every KeyValueStore implementation.
const (
	// KeyQuotes holds the JSON-encoded quote collection.
	KeyQuotes = "quotes"

	// KeySelectedCategory holds the last category filter the user chose.
	KeySelectedCategory = "selectedCategory"

	// KeyLastQuote holds the last randomly shown quote. Session scoped.
	KeyLastQuote = "lastQuote"
)

// KeyValueStore persists opaque values under string keys.
//
//go:generate mockery --name=KeyValueStore --structname=MockKeyValueStore --output=../mocks --outpkg=mocks --with-expecter
type KeyValueStore interface {
	// Get returns the stored value.
	// Returns domain.ErrNotFound if the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// QuoteSource is the remote producer of candidate quotes.
//
//go:generate mockery --name=QuoteSource --structname=MockQuoteSource --output=../mocks --outpkg=mocks --with-expecter
type QuoteSource interface {
	// FetchBatch returns at most limit candidate quotes, already mapped into
	// domain records. Returns domain.ErrUnavailable when the source cannot be
	// reached and domain.ErrFormat when its response cannot be decoded.
	FetchBatch(ctx context.Context, limit int) ([]domain.Quote, error)
}
