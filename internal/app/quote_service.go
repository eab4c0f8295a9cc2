package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// SyncRunner runs a sync cycle on demand. Both *Scheduler and a bare
// Reconciler adapter satisfy it.
type SyncRunner interface {
	Trigger(ctx context.Context) SyncResult
}

// QuoteServiceConfig contains the dependencies of the quote service.
type QuoteServiceConfig struct {
	Store     *Store
	Sync      SyncRunner
	Publisher ports.QuotePublisher

	// ImportPolicy applies when a caller does not name one.
	ImportPolicy ImportPolicy

	Logger *slog.Logger
}

// QuoteService is the use-case facade shared by the HTTP handlers and the CLI.
type QuoteService struct {
	store        *Store
	sync         SyncRunner
	publisher    ports.QuotePublisher
	importPolicy ImportPolicy
	exec         *Executor
	logger       *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.ImportPolicy
	if policy == "" {
		policy = ImportAppend
	}

	return &QuoteService{
		store:        cfg.Store,
		sync:         cfg.Sync,
		publisher:    cfg.Publisher,
		importPolicy: policy,
		exec:         NewExecutor(logger),
		logger:       logger,
	}
}

// List returns the quotes in category. An empty category means the persisted
// selection; the category actually applied is returned alongside.
func (s *QuoteService) List(ctx context.Context, category string) ([]domain.Quote, string, error) {
	if category == "" {
		selected, err := s.store.SelectedCategory(ctx)
		if err != nil {
			return nil, "", err
		}

		category = selected
	}

	return s.store.Filter(category), category, nil
}

// Get returns one quote.
func (s *QuoteService) Get(_ context.Context, id int64) (domain.Quote, error) {
	return s.store.Get(id)
}

// Add stores a new quote and, when a publisher is configured, pushes it
// upstream. A failed publish is logged and does not undo the add.
func (s *QuoteService) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	type addInput struct{ text, category string }

	op := Operation[addInput, domain.Quote, domain.Quote]{
		Name: "add_quote",
		Perform: func(ctx context.Context, in addInput) (domain.Quote, error) {
			return s.store.Add(ctx, in.text, in.category)
		},
		Verify: func(_ context.Context, _ addInput, q domain.Quote) error {
			_, err := s.store.Get(q.ID)
			return err
		},
		Respond: func(ctx context.Context, _ addInput, q domain.Quote) (domain.Quote, error) {
			s.publish(ctx, q)
			return q, nil
		},
	}

	return Execute(ctx, s.exec, op, addInput{text: text, category: category})
}

func (s *QuoteService) publish(ctx context.Context, q domain.Quote) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishQuote(ctx, q); err != nil {
		s.logger.WarnContext(ctx, "publishing quote failed",
			slog.Int64("quote_id", q.ID),
			slog.Any("error", err),
		)
	}
}

type importInput struct {
	payload    []byte
	policyName string

	policy  ImportPolicy
	records []domain.Quote
}

// Import decodes an import payload and merges it under the named policy
// (empty means the configured default). A malformed payload returns a
// domain.FormatError and changes nothing.
func (s *QuoteService) Import(ctx context.Context, payload []byte, policyName string) (ImportResult, error) {
	op := Operation[*importInput, ImportResult, ImportResult]{
		Name: "import_quotes",
		Validate: func(_ context.Context, in *importInput) error {
			in.policy = s.importPolicy
			if in.policyName != "" {
				p, err := ParseImportPolicy(in.policyName)
				if err != nil {
					return err
				}

				in.policy = p
			}

			records, err := DecodeImport(in.payload)
			if err != nil {
				return err
			}

			in.records = records

			return nil
		},
		Perform: func(ctx context.Context, in *importInput) (ImportResult, error) {
			return s.store.ImportBatch(ctx, in.records, in.policy)
		},
		Verify: func(_ context.Context, in *importInput, res ImportResult) error {
			if in.policy == ImportSkip {
				return nil
			}

			for _, q := range in.records {
				if _, err := s.store.Get(q.ID); err != nil {
					return err
				}
			}

			if res.Imported+res.Replaced+res.Skipped != res.Received {
				return domain.NewValidationError("import", "record counts do not add up")
			}

			return nil
		},
		Respond: func(_ context.Context, _ *importInput, res ImportResult) (ImportResult, error) {
			return res, nil
		},
	}

	return Execute(ctx, s.exec, op, &importInput{payload: payload, policyName: policyName})
}

// Export renders the full collection as an indented JSON document.
func (s *QuoteService) Export(_ context.Context) ([]byte, error) {
	return s.store.Export()
}

// Random picks a quote from category (empty means the persisted selection).
func (s *QuoteService) Random(ctx context.Context, category string) (domain.Quote, error) {
	if category == "" {
		selected, err := s.store.SelectedCategory(ctx)
		if err != nil {
			return domain.Quote{}, err
		}

		category = selected
	}

	return s.store.Random(ctx, category)
}

// LastViewed returns the last random pick of this session.
func (s *QuoteService) LastViewed(ctx context.Context) (domain.Quote, error) {
	return s.store.LastViewed(ctx)
}

// Categories returns the category index.
func (s *QuoteService) Categories(_ context.Context) []string {
	return s.store.Categories()
}

// SelectedCategory returns the persisted category filter.
func (s *QuoteService) SelectedCategory(ctx context.Context) (string, error) {
	return s.store.SelectedCategory(ctx)
}

// SetSelectedCategory persists the category filter.
func (s *QuoteService) SetSelectedCategory(ctx context.Context, category string) (string, error) {
	return s.store.SetSelectedCategory(ctx, category)
}

// Sync runs a cycle now.
func (s *QuoteService) Sync(ctx context.Context) SyncResult {
	if s.sync == nil {
		return SyncResult{
			Outcome:   SyncFailed,
			Trigger:   TriggerManual,
			StartedAt: time.Now(),
			Err:       domain.NewUnavailableError("sync", "sync is disabled"),
		}
	}

	return s.sync.Trigger(ctx)
}

// SyncStatus describes the scheduler for status endpoints.
type SyncStatus struct {
	Armed    bool
	Interval time.Duration
	Last     *SyncResult
}

// SyncStatus reports the scheduler state. Without a scheduler it is disarmed.
func (s *QuoteService) SyncStatus(_ context.Context) SyncStatus {
	sched, ok := s.sync.(*Scheduler)
	if !ok {
		return SyncStatus{}
	}

	status := SyncStatus{Armed: sched.Armed(), Interval: sched.Interval()}
	if last, ok := sched.LastResult(); ok {
		status.Last = &last
	}

	return status
}

// ReconcilerRunner runs cycles straight through a Reconciler, for one-shot
// use from the CLI.
type ReconcilerRunner struct {
	Reconciler *Reconciler
}

// Trigger implements SyncRunner.
func (r ReconcilerRunner) Trigger(ctx context.Context) SyncResult {
	return r.Reconciler.Sync(ctx, TriggerManual)
}
