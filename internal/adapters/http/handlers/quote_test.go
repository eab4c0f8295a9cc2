package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

var handlerNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// setupRouter wires the quote and sync handlers over a real Store backed by
// in-memory key-value stores holding quotes.
func setupRouter(t *testing.T, quotes []domain.Quote, sync *stubSync) *gin.Engine {
	t.Helper()

	durable := memory.New()

	data, err := app.EncodeQuotes(quotes)
	require.NoError(t, err)
	require.NoError(t, durable.Put(context.Background(), ports.KeyQuotes, data))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := app.NewStore(app.StoreConfig{
		Durable: durable,
		Session: memory.New(),
		Clock:   func() time.Time { return handlerNow },
		Logger:  logger,
	})

	_, err = store.Load(context.Background())
	require.NoError(t, err)

	service := app.NewQuoteService(app.QuoteServiceConfig{Store: store, Logger: logger})

	router := gin.New()
	api := router.Group("/api/v1")

	qh := NewQuoteHandler(service)
	qh.RegisterReadRoutes(api)
	qh.RegisterWriteRoutes(api)
	qh.RegisterAdminRoutes(api)

	if sync != nil {
		sh := NewSyncHandler(sync)
		sh.RegisterReadRoutes(api)
		sh.RegisterAdminRoutes(api)
	}

	return router
}

func sampleQuotes() []domain.Quote {
	return []domain.Quote{
		{ID: 1, Text: "Stay hungry.", Category: "Motivation", UpdatedAt: handlerNow},
		{ID: 2, Text: "Life is long.", Category: "Life", UpdatedAt: handlerNow},
		{ID: 3, Text: "Ship it.", Category: "Work", UpdatedAt: handlerNow},
		{ID: 4, Text: "Breathe.", Category: "Life", UpdatedAt: handlerNow},
	}
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func TestQuoteHandler_ListQuotes(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	w := do(router, http.MethodGet, "/api/v1/quotes", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.QuoteListResponse](t, w)
	assert.Equal(t, domain.CategoryAll, resp.Category)
	assert.Len(t, resp.Items, 4)
	assert.False(t, resp.HasMore)

	w = do(router, http.MethodGet, "/api/v1/quotes?category=Life", "")
	resp = decode[dto.QuoteListResponse](t, w)
	assert.Equal(t, "Life", resp.Category)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(2), resp.Items[0].ID)
	assert.Equal(t, int64(4), resp.Items[1].ID)
}

func TestQuoteHandler_ListQuotes_Paged(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	first := decode[dto.QuoteListResponse](t, do(router, http.MethodGet, "/api/v1/quotes?limit=3", ""))
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)
	assert.Len(t, first.Items, 3)

	second := decode[dto.QuoteListResponse](t, do(router, http.MethodGet, "/api/v1/quotes?limit=3&cursor="+first.NextCursor, ""))
	require.Len(t, second.Items, 1)
	assert.Equal(t, int64(4), second.Items[0].ID)
	assert.False(t, second.HasMore)
}

func TestQuoteHandler_ListQuotes_BadRequests(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/quotes?limit=500", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/quotes?cursor=@@@", "").Code)
}

func TestQuoteHandler_ListQuotes_UsesSelectedCategory(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	w := do(router, http.MethodPut, "/api/v1/preferences/category", `{"category":"Work"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.QuoteListResponse](t, do(router, http.MethodGet, "/api/v1/quotes", ""))
	assert.Equal(t, "Work", resp.Category)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Ship it.", resp.Items[0].Text)
}

func TestQuoteHandler_CreateQuote(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	w := do(router, http.MethodPost, "/api/v1/quotes", `{"text":"  Be kind. ","category":"Life"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[dto.QuoteResponse](t, w)
	assert.Equal(t, "Be kind.", created.Text)
	assert.Equal(t, "Life", created.Category)
	assert.Equal(t, handlerNow.UnixMilli(), created.UpdatedAt)
	assert.Equal(t, "/api/v1/quotes/"+jsonID(created.ID), w.Header().Get("Location"))

	got := do(router, http.MethodGet, "/api/v1/quotes/"+jsonID(created.ID), "")
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestQuoteHandler_CreateQuote_Invalid(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantField string
	}{
		{"empty text", `{"text":"","category":"Life"}`, dto.ErrorCodeValidation, "text"},
		{"blank category", `{"text":"x","category":"  "}`, dto.ErrorCodeValidation, "category"},
		{"malformed json", `{"text":`, dto.ErrorCodeBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/quotes", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decode[dto.ErrorResponse](t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			if tt.wantField != "" {
				assert.Contains(t, resp.Error.Details, tt.wantField)
			}
		})
	}

	list := decode[dto.QuoteListResponse](t, do(router, http.MethodGet, "/api/v1/quotes", ""))
	assert.Len(t, list.Items, 4)
}

func TestQuoteHandler_GetQuote(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	w := do(router, http.MethodGet, "/api/v1/quotes/3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ship it.", decode[dto.QuoteResponse](t, w).Text)

	w = do(router, http.MethodGet, "/api/v1/quotes/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeNotFound, decode[dto.ErrorResponse](t, w).Error.Code)

	w = do(router, http.MethodGet, "/api/v1/quotes/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteHandler_RandomAndLast(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	w := do(router, http.MethodGet, "/api/v1/quotes/last", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/api/v1/quotes/random?category=Work", "")
	require.Equal(t, http.StatusOK, w.Code)
	picked := decode[dto.QuoteResponse](t, w)
	assert.Equal(t, int64(3), picked.ID)

	w = do(router, http.MethodGet, "/api/v1/quotes/last", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, picked, decode[dto.QuoteResponse](t, w))
}

func TestQuoteHandler_Random_EmptyCategory(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	w := do(router, http.MethodGet, "/api/v1/quotes/random?category=Nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteHandler_ExportImport(t *testing.T) {
	source := setupRouter(t, sampleQuotes(), nil)

	w := do(source, http.MethodGet, "/api/v1/quotes/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="quotes.json"`)
	assert.Contains(t, w.Body.String(), "\n  ")

	target := setupRouter(t, []domain.Quote{}, nil)

	imported := do(target, http.MethodPost, "/api/v1/quotes/import", w.Body.String())
	require.Equal(t, http.StatusOK, imported.Code, imported.Body.String())

	result := decode[app.ImportResult](t, imported)
	assert.Equal(t, 4, result.Received)
	assert.Equal(t, 4, result.Imported)

	list := decode[dto.QuoteListResponse](t, do(target, http.MethodGet, "/api/v1/quotes", ""))
	assert.Len(t, list.Items, 4)
}

func TestQuoteHandler_Import_Errors(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"object instead of array", "/api/v1/quotes/import", `{"id":1}`, http.StatusBadRequest, dto.ErrorCodeInvalidFormat},
		{"not json", "/api/v1/quotes/import", `hello`, http.StatusBadRequest, dto.ErrorCodeInvalidFormat},
		{"unknown policy", "/api/v1/quotes/import?policy=merge", `[]`, http.StatusBadRequest, dto.ErrorCodeValidation},
		{"reject duplicates", "/api/v1/quotes/import?policy=reject", `[{"id":1,"text":"x","category":"y"}]`, http.StatusConflict, dto.ErrorCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode[dto.ErrorResponse](t, w).Error.Code)
		})
	}

	list := decode[dto.QuoteListResponse](t, do(router, http.MethodGet, "/api/v1/quotes", ""))
	assert.Len(t, list.Items, 4)
}

func TestQuoteHandler_Categories(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	resp := decode[dto.CategoriesResponse](t, do(router, http.MethodGet, "/api/v1/categories", ""))

	assert.Equal(t, []string{"All", "Motivation", "Life", "Work"}, resp.Categories)
}

func TestQuoteHandler_CategoryPreference(t *testing.T) {
	router := setupRouter(t, sampleQuotes(), nil)

	got := decode[dto.CategoryPreference](t, do(router, http.MethodGet, "/api/v1/preferences/category", ""))
	assert.Equal(t, domain.CategoryAll, got.Category)

	w := do(router, http.MethodPut, "/api/v1/preferences/category", `{"category":"Unknown"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, "/api/v1/preferences/category", `{"category":"Life"}`)
	require.Equal(t, http.StatusOK, w.Code)

	got = decode[dto.CategoryPreference](t, do(router, http.MethodGet, "/api/v1/preferences/category", ""))
	assert.Equal(t, "Life", got.Category)
}

func TestSyncHandler(t *testing.T) {
	sync := &stubSync{
		result: app.SyncResult{Outcome: app.SyncApplied, Trigger: app.TriggerManual, Fetched: 5, Added: 5},
		status: app.SyncStatus{Armed: true, Interval: 30 * time.Second},
	}
	router := setupRouter(t, sampleQuotes(), sync)

	w := do(router, http.MethodPost, "/api/v1/sync", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[dto.SyncResultResponse](t, w)
	assert.Equal(t, "applied", res.Outcome)
	assert.Equal(t, "Quotes synced with server!", res.Message)

	status := decode[dto.SyncStatusResponse](t, do(router, http.MethodGet, "/api/v1/sync/status", ""))
	assert.True(t, status.Armed)
	assert.Equal(t, int64(30000), status.IntervalMs)
}

func TestSyncHandler_FailedCycleIsBadGateway(t *testing.T) {
	sync := &stubSync{result: app.SyncResult{
		Outcome: app.SyncFailed,
		Trigger: app.TriggerManual,
		Err:     domain.NewUnavailableError("posts", "HTTP 500"),
	}}
	router := setupRouter(t, sampleQuotes(), sync)

	w := do(router, http.MethodPost, "/api/v1/sync", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)

	res := decode[dto.SyncResultResponse](t, w)
	assert.Equal(t, "Failed to sync with server.", res.Message)
	assert.Contains(t, res.Error, "HTTP 500")
}

func jsonID(id int64) string {
	return domain.Quote{ID: id}.IDString()
}
