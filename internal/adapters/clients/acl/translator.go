package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// BaseAdapter holds what every adapter over a clients.Client needs: the
// client, the service name used in errors, and status-to-error mapping.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a new base adapter with the given client and service name.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
	}
}

// ServiceName returns the name of the external service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// CircuitState reports the breaker guarding the service.
func (a *BaseAdapter) CircuitState() clients.State {
	return a.client.CircuitState()
}

// Get performs a GET and returns the body of a 2xx response. The caller
// closes it. Any other outcome is a domain error.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)

	return a.body(resp, err, operation)
}

// Post performs a JSON POST and returns the body of a 2xx response.
func (a *BaseAdapter) Post(ctx context.Context, path string, body io.Reader, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Post(ctx, path, body)

	return a.body(resp, err, operation)
}

func (a *BaseAdapter) body(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it. A body that does
// not decode is a domain.FormatError naming source.
func DecodeResponse[T any](body io.ReadCloser, source string) (T, error) {
	var result T

	if body == nil {
		return result, domain.NewFormatError(source, "response body is empty", nil)
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return result, domain.NewFormatError(source, "response is not valid JSON for the expected shape", err)
	}

	return result, nil
}

// Translator converts one external DTO into a domain value, rejecting data
// the domain cannot accept.
type Translator[External, Domain any] func(ext External) (Domain, error)

// TranslateSlice applies translate to each item and stops at the first error.
func TranslateSlice[E, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i, item := range items {
		translated, err := translate(item)
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}

// ValidatePositive returns a domain.ValidationError unless value > 0.
func ValidatePositive[T ~int | ~int64](value T, fieldName string) error {
	if value <= 0 {
		return domain.NewValidationError(fieldName, "must be positive")
	}

	return nil
}
