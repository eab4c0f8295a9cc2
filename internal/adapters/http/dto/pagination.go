package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// Cursor errors.
var (
	// ErrInvalidCursor is returned when cursor decoding fails or the cursor
	// no longer points into the listing.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor indicates no cursor was provided (first page request).
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest represents pagination parameters from the request.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// DecodeCursor decodes the cursor string into CursorData.
// Returns ErrNoCursor if cursor is empty (first page request).
func (p *PaginationRequest) DecodeCursor() (*CursorData, error) {
	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is a generic paginated response structure.
type PaginatedResponse[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	HasMore bool `json:"hasMore"`
}

// CursorData is what a quote listing cursor encodes: the category the
// listing was filtered by, the offset of the next page and the id of the
// last quote already returned. Ids may repeat after an append import, so
// the offset locates the page and the id confirms it.
type CursorData struct {
	Category string `json:"c"`
	Offset   int    `json:"o"`
	AfterID  int64  `json:"a"`
}

// EncodeCursor encodes cursor data to a base64 string.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to cursor data.
// Returns ErrNoCursor if the encoded string is empty.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return nil, ErrNoCursor
	}

	jsonBytes, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}

// Paginate cuts one page out of items. cursor may be nil for the first page.
// A cursor for another category, or one whose offset no longer lands just
// past the quote it names, is rejected with ErrInvalidCursor.
func Paginate[T any](items []T, idOf func(T) int64, category string, cursor *CursorData, limit int) (*PaginatedResponse[T], error) {
	start := 0

	if cursor != nil {
		if cursor.Category != category {
			return nil, ErrInvalidCursor
		}

		if cursor.Offset < 1 || cursor.Offset > len(items) || idOf(items[cursor.Offset-1]) != cursor.AfterID {
			return nil, ErrInvalidCursor
		}

		start = cursor.Offset
	}

	page := items[start:]
	hasMore := len(page) > limit

	if hasMore {
		page = page[:limit]
	}

	resp := &PaginatedResponse[T]{Items: page, HasMore: hasMore}
	if resp.Items == nil {
		resp.Items = []T{}
	}

	if hasMore {
		resp.NextCursor = EncodeCursor(&CursorData{
			Category: category,
			Offset:   start + len(page),
			AfterID:  idOf(page[len(page)-1]),
		})
	}

	return resp, nil
}
