package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)

func TestStore_RoundTripAndClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	value := []byte(`{"id":1}`)
	require.NoError(t, s.Put(ctx, ports.KeyLastQuote, value))

	value[0] = 'X'

	got, err := s.Get(ctx, ports.KeyLastQuote)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got), "stored value must not alias the caller's slice")

	s.Clear()

	_, err = s.Get(ctx, ports.KeyLastQuote)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_Delete(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
}
