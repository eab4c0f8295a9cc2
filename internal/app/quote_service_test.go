package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/mocks"
)

func newTestService(t *testing.T, publisher *MockQuotePublisher, sync SyncRunner, quotes ...domain.Quote) (*QuoteService, storeFixture) {
	t.Helper()

	f := newStoreFixture(t, quotes...)

	cfg := QuoteServiceConfig{Store: f.store, Sync: sync, Logger: discardLogger()}
	if publisher != nil {
		cfg.Publisher = publisher
	}

	return NewQuoteService(cfg), f
}

func TestQuoteService_Add_Publishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := NewMockQuotePublisher(ctrl)

	svc, f := newTestService(t, publisher, nil, []domain.Quote{}...)

	publisher.EXPECT().
		PublishQuote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q domain.Quote) error {
			assert.Equal(t, "Be kind.", q.Text)
			return nil
		})

	q, err := svc.Add(context.Background(), "Be kind.", "Life")

	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, "Life", q.Category)
}

func TestQuoteService_Add_PublishFailureKeepsQuote(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := NewMockQuotePublisher(ctrl)

	svc, f := newTestService(t, publisher, nil, []domain.Quote{}...)

	publisher.EXPECT().
		PublishQuote(gomock.Any(), gomock.Any()).
		Return(domain.NewUnavailableError("posts", "503"))

	q, err := svc.Add(context.Background(), "Be kind.", "Life")

	require.NoError(t, err)

	got, err := f.store.Get(q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestQuoteService_Add_ValidationSkipsPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := NewMockQuotePublisher(ctrl)

	svc, f := newTestService(t, publisher, nil, []domain.Quote{}...)

	_, err := svc.Add(context.Background(), "", "Life")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepPerform, step)
	assert.Equal(t, 0, f.store.Len())
}

func TestQuoteService_Import(t *testing.T) {
	payload := []byte(`[{"id":1,"text":"new","category":"Server"},{"id":2,"text":"two","category":"Server"}]`)

	t.Run("default policy appends", func(t *testing.T) {
		svc, f := newTestService(t, nil, nil, domain.Quote{ID: 1, Text: "old", Category: "Life"})

		res, err := svc.Import(context.Background(), payload, "")

		require.NoError(t, err)
		assert.Equal(t, ImportResult{Policy: ImportAppend, Received: 2, Imported: 2}, res)
		assert.Equal(t, 3, f.store.Len())
	})

	t.Run("named policy", func(t *testing.T) {
		svc, f := newTestService(t, nil, nil, domain.Quote{ID: 1, Text: "old", Category: "Life"})

		res, err := svc.Import(context.Background(), payload, "replace")

		require.NoError(t, err)
		assert.Equal(t, 1, res.Replaced)
		assert.Equal(t, 2, f.store.Len())
	})

	t.Run("format error changes nothing", func(t *testing.T) {
		svc, f := newTestService(t, nil, nil, domain.Quote{ID: 1, Text: "old", Category: "Life"})

		_, err := svc.Import(context.Background(), []byte(`{"id":3}`), "")

		require.Error(t, err)
		assert.True(t, domain.IsFormat(err))

		step, _ := FailedStep(err)
		assert.Equal(t, StepValidate, step)
		assert.Equal(t, 1, f.store.Len())
	})

	t.Run("unknown policy", func(t *testing.T) {
		svc, _ := newTestService(t, nil, nil, []domain.Quote{}...)

		_, err := svc.Import(context.Background(), payload, "merge")

		assert.True(t, domain.IsValidation(err))
	})

	t.Run("reject conflicts", func(t *testing.T) {
		svc, f := newTestService(t, nil, nil, domain.Quote{ID: 1, Text: "old", Category: "Life"})

		_, err := svc.Import(context.Background(), payload, "reject")

		assert.True(t, domain.IsConflict(err))
		assert.Equal(t, 1, f.store.Len())
	})
}

func TestQuoteService_ListUsesSelectedCategory(t *testing.T) {
	svc, _ := newTestService(t, nil, nil,
		domain.Quote{ID: 1, Text: "a", Category: "Life"},
		domain.Quote{ID: 2, Text: "b", Category: "Work"},
	)

	quotes, applied, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryAll, applied)
	assert.Len(t, quotes, 2)

	_, err = svc.SetSelectedCategory(context.Background(), "Work")
	require.NoError(t, err)

	quotes, applied, err = svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Work", applied)
	require.Len(t, quotes, 1)
	assert.Equal(t, "b", quotes[0].Text)

	quotes, _, err = svc.List(context.Background(), "Life")
	require.NoError(t, err)
	assert.Len(t, quotes, 1)

	random, err := svc.Random(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Work", random.Category)

	last, err := svc.LastViewed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, random, last)
}

func TestQuoteService_Sync(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc, _ := newTestService(t, nil, nil, []domain.Quote{}...)

		res := svc.Sync(context.Background())

		assert.Equal(t, SyncFailed, res.Outcome)
		assert.True(t, domain.IsUnavailable(res.Err))
		assert.False(t, svc.SyncStatus(context.Background()).Armed)
	})

	t.Run("through the reconciler", func(t *testing.T) {
		source := mocks.NewMockQuoteSource(t)
		source.EXPECT().FetchBatch(mock.Anything, 5).Return(nil, errors.New("boom"))

		f := newStoreFixture(t, []domain.Quote{}...)
		svc := NewQuoteService(QuoteServiceConfig{
			Store:  f.store,
			Sync:   ReconcilerRunner{Reconciler: newTestReconciler(f.store, source)},
			Logger: discardLogger(),
		})

		res := svc.Sync(context.Background())

		assert.Equal(t, SyncFailed, res.Outcome)
		assert.Equal(t, TriggerManual, res.Trigger)
	})

	t.Run("scheduler status", func(t *testing.T) {
		source := mocks.NewMockQuoteSource(t)
		source.EXPECT().FetchBatch(mock.Anything, 5).Return([]domain.Quote{{ID: 1, Text: "A", Category: "Server"}}, nil)

		f := newStoreFixture(t, []domain.Quote{}...)
		sched := NewScheduler(SchedulerConfig{Reconciler: newTestReconciler(f.store, source), Logger: discardLogger()})
		svc := NewQuoteService(QuoteServiceConfig{Store: f.store, Sync: sched, Logger: discardLogger()})

		res := svc.Sync(context.Background())
		require.True(t, res.Applied())

		status := svc.SyncStatus(context.Background())
		assert.False(t, status.Armed)
		assert.Equal(t, sched.Interval(), status.Interval)
		require.NotNil(t, status.Last)
		assert.Equal(t, 1, status.Last.Added)
	})
}

func TestQuoteService_ExportAndCategories(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, domain.Quote{ID: 1, Text: "a", Category: "Life", UpdatedAt: testNow})

	data, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "a"`)

	assert.Equal(t, []string{"All", "Life"}, svc.Categories(context.Background()))

	_, err = svc.Get(context.Background(), 99)
	assert.True(t, domain.IsNotFound(err))
}
