// Package app holds the quote collection and the use cases built on it: the
// Store, the Reconciler, the sync Scheduler and the QuoteService facade.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// LoadSource says where Load found the collection.
type LoadSource string

const (
	// LoadPersisted means the stored collection decoded cleanly.
	LoadPersisted LoadSource = "persisted"

	// LoadSeededMissing means nothing was stored yet.
	LoadSeededMissing LoadSource = "seeded-missing"

	// LoadSeededCorrupt means the stored value could not be decoded and was
	// replaced in memory by the seed set.
	LoadSeededCorrupt LoadSource = "seeded-corrupt"
)

// LoadResult describes the outcome of Store.Load.
type LoadResult struct {
	Source LoadSource
	Count  int

	// Corruption is the decode failure when Source is LoadSeededCorrupt.
	Corruption error
}

// StoreConfig wires a Store.
type StoreConfig struct {
	// Durable holds the quotes and selectedCategory keys. Required.
	Durable ports.KeyValueStore

	// Session holds lastQuote. Optional; without it the last random pick is
	// not remembered.
	Session ports.KeyValueStore

	// Seed fills an empty or corrupt collection with the example quotes.
	Seed bool

	IDs    *domain.IDGenerator
	Clock  func() time.Time
	Logger *slog.Logger
}

// Store is the single owner of the quote collection. Reads return copies.
// Every mutation runs under the write lock for the whole
// read-modify-persist step, and memory only changes once the durable write
// has succeeded.
type Store struct {
	mu     sync.RWMutex
	quotes []domain.Quote

	durable ports.KeyValueStore
	session ports.KeyValueStore
	seed    bool
	ids     *domain.IDGenerator
	now     func() time.Time
	logger  *slog.Logger
	pick    func(n int) int
}

// NewStore creates an empty Store. Call Load before serving reads.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Durable == nil {
		panic("app.NewStore: Durable store is required")
	}

	s := &Store{
		durable: cfg.Durable,
		session: cfg.Session,
		seed:    cfg.Seed,
		ids:     cfg.IDs,
		now:     cfg.Clock,
		logger:  cfg.Logger,
		pick:    rand.IntN,
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.ids == nil {
		s.ids = domain.NewIDGenerator(s.now)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Load reads the persisted collection. A missing or undecodable value falls
// back to the seed set (or an empty collection when seeding is off); only a
// failing storage backend returns an error.
func (s *Store) Load(ctx context.Context) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.FromContext(ctx)

	data, err := s.durable.Get(ctx, ports.KeyQuotes)

	switch {
	case domain.IsNotFound(err):
		s.replaceLocked(s.seedQuotes())
		logger.InfoContext(ctx, "no stored quotes, starting from seed", slog.Int("count", len(s.quotes)))

		return LoadResult{Source: LoadSeededMissing, Count: len(s.quotes)}, nil
	case err != nil:
		return LoadResult{}, fmt.Errorf("loading quotes: %w", err)
	}

	quotes, decodeErr := DecodeQuotes(ports.KeyQuotes, data)
	if decodeErr != nil {
		s.replaceLocked(s.seedQuotes())
		logger.WarnContext(ctx, "stored quotes are corrupt, starting from seed",
			slog.Any("error", decodeErr),
			slog.Int("bytes", len(data)),
		)

		return LoadResult{Source: LoadSeededCorrupt, Count: len(s.quotes), Corruption: decodeErr}, nil
	}

	s.replaceLocked(quotes)
	logger.InfoContext(ctx, "quotes loaded", slog.Int("count", len(quotes)))

	return LoadResult{Source: LoadPersisted, Count: len(quotes)}, nil
}

// Save writes the current collection to durable storage.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistLocked(ctx, s.quotes)
}

// Apply is the exclusive-access token for mutations. fn receives a copy of
// the collection and returns the next one; the result is persisted and only
// then becomes visible. An error from fn or from persistence leaves the
// Store unchanged.
func (s *Store) Apply(ctx context.Context, fn func(current []domain.Quote) ([]domain.Quote, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(slices.Clone(s.quotes))
	if err != nil {
		return err
	}

	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}

	s.replaceLocked(next)

	return nil
}

// Add validates and appends a new quote with a fresh id.
func (s *Store) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	var added domain.Quote

	err := s.Apply(ctx, func(current []domain.Quote) ([]domain.Quote, error) {
		q, err := domain.NewQuote(s.ids.Next(), text, category, s.now())
		if err != nil {
			return nil, err
		}

		added = q

		return append(current, q), nil
	})
	if err != nil {
		return domain.Quote{}, err
	}

	return added, nil
}

// ImportPolicy decides what happens to imported records whose id already
// exists in the collection.
type ImportPolicy string

const (
	// ImportAppend keeps every record, duplicates included.
	ImportAppend ImportPolicy = "append"

	// ImportSkip drops records whose id is already present.
	ImportSkip ImportPolicy = "skip"

	// ImportReplace lets imported records replace existing ones, as a sync does.
	ImportReplace ImportPolicy = "replace"

	// ImportReject refuses the whole file if any id is already present.
	ImportReject ImportPolicy = "reject"
)

// ParseImportPolicy validates a policy name. Empty means ImportAppend.
func ParseImportPolicy(name string) (ImportPolicy, error) {
	switch p := ImportPolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ImportAppend, nil
	case ImportAppend, ImportSkip, ImportReplace, ImportReject:
		return p, nil
	default:
		return "", domain.NewValidationErrorWithValue("policy", "must be one of append, skip, replace, reject", name)
	}
}

// ImportResult counts what an import did.
type ImportResult struct {
	Policy   ImportPolicy `json:"policy"`
	Received int          `json:"received"`
	Imported int          `json:"imported"`
	Replaced int          `json:"replaced"`
	Skipped  int          `json:"skipped"`
}

// ImportBatch merges externally supplied records according to policy.
// Records without a timestamp are stamped with the import time.
func (s *Store) ImportBatch(ctx context.Context, records []domain.Quote, policy ImportPolicy) (ImportResult, error) {
	result := ImportResult{Policy: policy, Received: len(records)}
	stamp := domain.Timestamp(s.now())

	incoming := make([]domain.Quote, len(records))
	for i, r := range records {
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = stamp
		}

		incoming[i] = r
	}

	err := s.Apply(ctx, func(current []domain.Quote) ([]domain.Quote, error) {
		switch policy {
		case ImportAppend, "":
			result.Imported = len(incoming)

			return append(current, incoming...), nil
		case ImportReplace:
			merged := domain.Merge(current, incoming)
			result.Imported = merged.Added
			result.Replaced = merged.Conflicts

			return merged.Quotes, nil
		case ImportSkip:
			present := idSet(current)

			for _, q := range incoming {
				if _, ok := present[q.ID]; ok {
					result.Skipped++

					continue
				}

				present[q.ID] = struct{}{}
				current = append(current, q)
				result.Imported++
			}

			return current, nil
		case ImportReject:
			present := idSet(current)

			var dup []int64

			for _, q := range incoming {
				if _, ok := present[q.ID]; ok {
					dup = append(dup, q.ID)
				}
			}

			if len(dup) > 0 {
				return nil, domain.NewConflictError("quote", dup)
			}

			result.Imported = len(incoming)

			return append(current, incoming...), nil
		default:
			return nil, domain.NewValidationErrorWithValue("policy", "unknown import policy", string(policy))
		}
	})
	if err != nil {
		return ImportResult{}, err
	}

	logging.FromContext(ctx).InfoContext(ctx, "quotes imported",
		slog.String("policy", string(policy)),
		slog.Int("received", result.Received),
		slog.Int("imported", result.Imported),
		slog.Int("replaced", result.Replaced),
		slog.Int("skipped", result.Skipped),
	)

	return result, nil
}

// All returns a copy of the collection in order.
func (s *Store) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.quotes)
}

// Len returns the number of quotes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Get returns the first quote with id.
func (s *Store) Get(id int64) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.quotes {
		if q.ID == id {
			return q, nil
		}
	}

	return domain.Quote{}, domain.NewNotFoundError("quote", domain.Quote{ID: id}.IDString())
}

// Filter returns the quotes in category; CategoryAll returns everything.
func (s *Store) Filter(category string) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.FilterByCategory(s.quotes, category)
}

// Categories returns the category index of the current collection.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Categories(s.quotes)
}

// Export renders the collection in the indented export format.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return EncodeExport(s.quotes)
}

// Random picks a quote from category and remembers it for the session.
func (s *Store) Random(ctx context.Context, category string) (domain.Quote, error) {
	candidates := s.Filter(category)
	if len(candidates) == 0 {
		return domain.Quote{}, domain.NewNotFoundError("quote in category", category)
	}

	q := candidates[s.pick(len(candidates))]

	if s.session != nil {
		data, err := EncodeQuotes([]domain.Quote{q})
		if err == nil {
			err = s.session.Put(ctx, ports.KeyLastQuote, data)
		}

		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "could not remember last quote", slog.Any("error", err))
		}
	}

	return q, nil
}

// LastViewed returns the quote most recently returned by Random in this session.
func (s *Store) LastViewed(ctx context.Context) (domain.Quote, error) {
	if s.session == nil {
		return domain.Quote{}, domain.NewNotFoundError("last quote", "")
	}

	data, err := s.session.Get(ctx, ports.KeyLastQuote)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Quote{}, domain.NewNotFoundError("last quote", "")
		}

		return domain.Quote{}, fmt.Errorf("reading last quote: %w", err)
	}

	quotes, err := DecodeQuotes(ports.KeyLastQuote, data)
	if err != nil || len(quotes) != 1 {
		return domain.Quote{}, domain.NewNotFoundError("last quote", "")
	}

	return quotes[0], nil
}

// SelectedCategory returns the persisted filter, CategoryAll by default.
func (s *Store) SelectedCategory(ctx context.Context) (string, error) {
	data, err := s.durable.Get(ctx, ports.KeySelectedCategory)
	if domain.IsNotFound(err) {
		return domain.CategoryAll, nil
	}

	if err != nil {
		return "", fmt.Errorf("reading selected category: %w", err)
	}

	if category := strings.TrimSpace(string(data)); category != "" {
		return category, nil
	}

	return domain.CategoryAll, nil
}

// SetSelectedCategory persists the filter. It must be an entry of the
// current category index.
func (s *Store) SetSelectedCategory(ctx context.Context, category string) (string, error) {
	category = strings.TrimSpace(category)

	if !slices.Contains(s.Categories(), category) {
		return "", domain.NewValidationErrorWithValue("category", "is not a known category", category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.durable.Put(ctx, ports.KeySelectedCategory, []byte(category)); err != nil {
		return "", fmt.Errorf("saving selected category: %w", err)
	}

	return category, nil
}

func (s *Store) persistLocked(ctx context.Context, quotes []domain.Quote) error {
	data, err := EncodeQuotes(quotes)
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	if err := s.durable.Put(ctx, ports.KeyQuotes, data); err != nil {
		return fmt.Errorf("saving quotes: %w", err)
	}

	return nil
}

func (s *Store) replaceLocked(quotes []domain.Quote) {
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	s.quotes = quotes
	s.ids.Observe(quotes)
}

func (s *Store) seedQuotes() []domain.Quote {
	if !s.seed {
		return nil
	}

	stamp := domain.Timestamp(s.now())
	quotes := make([]domain.Quote, len(seed))

	for i, q := range seed {
		quotes[i] = domain.Quote{ID: s.ids.Next(), Text: q.text, Category: q.category, UpdatedAt: stamp}
	}

	return quotes
}

var seed = []struct{ text, category string }{
	{"The only way to do great work is to love what you do.", "Motivation"},
	{"Life is what happens when you're busy making other plans.", "Life"},
	{"Simplicity is the soul of efficiency.", "Work"},
}

func idSet(quotes []domain.Quote) map[int64]struct{} {
	set := make(map[int64]struct{}, len(quotes))
	for _, q := range quotes {
		set[q.ID] = struct{}{}
	}

	return set
}
