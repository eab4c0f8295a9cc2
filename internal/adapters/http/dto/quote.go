package dto

import (
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// QuoteResponse is the wire form of a quote. UpdatedAt is epoch milliseconds,
// the same encoding used by export files.
type QuoteResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	resp := QuoteResponse{ID: q.ID, Text: q.Text, Category: q.Category}
	if !q.UpdatedAt.IsZero() {
		resp.UpdatedAt = q.UpdatedAt.UnixMilli()
	}

	return resp
}

// NewQuoteResponses converts a slice of domain quotes.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notempty,max=2000"`
	Category string `json:"category" validate:"required,notempty,max=100"`
}

// ListQuotesRequest is the query of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	// Category filters the listing. Empty uses the persisted selection.
	Category string `form:"category" validate:"omitempty,max=100"`
}

// QuoteListResponse is one page of quotes with the filter that was applied.
type QuoteListResponse struct {
	Category string `json:"category"`
	*PaginatedResponse[QuoteResponse]
}

// CategoriesResponse is the category index.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// CategoryPreference is both the body of PUT /preferences/category and the
// response of GET and PUT.
type CategoryPreference struct {
	Category string `json:"category" validate:"required,notempty,max=100"`
}

// SyncResultResponse describes one sync cycle.
type SyncResultResponse struct {
	Outcome    string `json:"outcome"`
	Trigger    string `json:"trigger"`
	Message    string `json:"message"`
	Fetched    int    `json:"fetched"`
	Added      int    `json:"added"`
	Conflicts  int    `json:"conflicts"`
	StartedAt  int64  `json:"startedAt"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// NewSyncResultResponse converts an app.SyncResult.
func NewSyncResultResponse(r app.SyncResult) SyncResultResponse {
	resp := SyncResultResponse{
		Outcome:    string(r.Outcome),
		Trigger:    r.Trigger,
		Message:    r.Message(),
		Fetched:    r.Fetched,
		Added:      r.Added,
		Conflicts:  r.Conflicts,
		StartedAt:  r.StartedAt.UnixMilli(),
		DurationMs: r.Duration.Milliseconds(),
	}

	if r.Err != nil {
		resp.Error = r.Err.Error()
	}

	return resp
}

// SyncStatusResponse describes the scheduler.
type SyncStatusResponse struct {
	Armed      bool                `json:"armed"`
	IntervalMs int64               `json:"intervalMs"`
	Last       *SyncResultResponse `json:"last,omitempty"`
}

// NewSyncStatusResponse converts an app.SyncStatus.
func NewSyncStatusResponse(s app.SyncStatus) SyncStatusResponse {
	resp := SyncStatusResponse{Armed: s.Armed, IntervalMs: s.Interval.Milliseconds()}
	if s.Last != nil {
		last := NewSyncResultResponse(*s.Last)
		resp.Last = &last
	}

	return resp
}
