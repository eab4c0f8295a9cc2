package acl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
)

// testConfig returns a minimal config for testing.
func testConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "posts",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

// --- Error mapping ---

func TestMapHTTPError_Statuses(t *testing.T) {
	tests := []struct {
		name       string
		resp       *http.Response
		wantReason string
	}{
		{"server error", response(http.StatusInternalServerError, ""), "fetch posts returned HTTP 500"},
		{"rate limited", response(http.StatusTooManyRequests, ""), "fetch posts was rate limited"},
		{"not found", response(http.StatusNotFound, ""), "fetch posts endpoint not found"},
		{"bad request with message", response(http.StatusBadRequest, `{"error":{"message":"bad limit"}}`), "fetch posts returned HTTP 400: bad limit"},
		{"flat error body", response(http.StatusBadGateway, `{"message":"upstream down"}`), "fetch posts returned HTTP 502: upstream down"},
		{"no response", nil, "no response received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.resp, nil, "posts", "fetch posts")

			var unavailable *domain.UnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Equal(t, "posts", unavailable.Service)
			assert.Equal(t, tt.wantReason, unavailable.Reason)
		})
	}
}

func TestMapHTTPError_SuccessReturnsNil(t *testing.T) {
	assert.NoError(t, MapHTTPError(response(http.StatusCreated, ""), nil, "posts", "publish quote"))
}

func TestMapHTTPError_ClientErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantReason string
	}{
		{clients.ErrCircuitOpen, "circuit breaker open during fetch posts"},
		{clients.ErrMaxRetriesExceeded, "max retries exceeded during fetch posts"},
		{errors.New("dial tcp: refused"), "fetch posts failed: dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.wantReason, func(t *testing.T) {
			err := MapHTTPError(nil, tt.err, "posts", "fetch posts")

			require.True(t, domain.IsUnavailable(err))
			assert.Contains(t, err.Error(), tt.wantReason)
		})
	}
}

func TestParseErrorResponse(t *testing.T) {
	nested := ParseErrorResponse(strings.NewReader(`{"error":{"code":"X","message":"nested"}}`))
	require.NotNil(t, nested)
	assert.Equal(t, "nested", nested.GetMessage())

	flat := ParseErrorResponse(strings.NewReader(`{"code":"X","message":"flat"}`))
	require.NotNil(t, flat)
	assert.Equal(t, "flat", flat.GetMessage())

	assert.Nil(t, ParseErrorResponse(strings.NewReader(`not json`)))
	assert.Nil(t, ParseErrorResponse(strings.NewReader(`{}`)))
	assert.Nil(t, ParseErrorResponse(nil))
}

// --- Decoding and translation ---

func TestDecodeResponse(t *testing.T) {
	got, err := DecodeResponse[[]postDTO](io.NopCloser(strings.NewReader(`[{"id":1,"title":"t"}]`)), "posts")
	require.NoError(t, err)
	assert.Equal(t, []postDTO{{ID: 1, Title: "t"}}, got)

	_, err = DecodeResponse[[]postDTO](io.NopCloser(strings.NewReader(`{"id":1}`)), "posts")
	assert.True(t, domain.IsFormat(err))

	_, err = DecodeResponse[[]postDTO](nil, "posts")
	assert.True(t, domain.IsFormat(err))
}

func TestTranslateSlice(t *testing.T) {
	double := func(n int) (int, error) {
		if n < 0 {
			return 0, errors.New("negative")
		}

		return n * 2, nil
	}

	got, err := TranslateSlice([]int{1, 2, 3}, double)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, got)

	empty, err := TranslateSlice(nil, double)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = TranslateSlice([]int{1, -1}, double)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translating item 1")
}

func TestValidatePositive(t *testing.T) {
	require.NoError(t, ValidatePositive(int64(3), "id"))
	assert.True(t, domain.IsValidation(ValidatePositive(0, "id")))
	assert.True(t, domain.IsValidation(ValidatePositive(int64(-2), "id")))
}

func TestBaseAdapter_GetMapsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	adapter := NewBaseAdapter(client, "posts")
	assert.Equal(t, "posts", adapter.ServiceName())

	body, err := adapter.Get(context.Background(), "/posts", "fetch posts")

	assert.Nil(t, body)
	assert.True(t, domain.IsUnavailable(err))
}
