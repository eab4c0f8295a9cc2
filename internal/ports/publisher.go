package ports

import (
	"context"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// QuotePublisher pushes a locally added quote to the remote endpoint.
//
//go:generate mockgen -package=app -destination=../app/publisher_mock_test.go -source=publisher.go
type QuotePublisher interface {
	// PublishQuote sends q upstream. The remote side is not authoritative,
	// so callers treat failures as non-fatal.
	PublishQuote(ctx context.Context, q domain.Quote) error
}
