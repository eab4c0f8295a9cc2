package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)
var _ ports.HealthChecker = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), MemoryPath, Options{BusyTimeout: time.Second})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, ports.KeyQuotes, []byte(`[{"id":1}]`)))

	got, err := s.Get(ctx, ports.KeyQuotes)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(got))
}

func TestStore_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, ports.KeySelectedCategory, []byte("Life")))
	require.NoError(t, s.Put(ctx, ports.KeySelectedCategory, []byte("Server")))

	got, err := s.Get(ctx, ports.KeySelectedCategory)
	require.NoError(t, err)
	assert.Equal(t, "Server", string(got))
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")

	assert.True(t, domain.IsNotFound(err))
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quotes.db")
	ctx := context.Background()

	first, err := Open(ctx, path, Options{})
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, ports.KeyQuotes, []byte("[]")))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, Options{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = second.Close() })

	got, err := second.Get(ctx, ports.KeyQuotes)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestStore_HealthCheck(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, "sqlite", s.Name())
	require.NoError(t, s.Check(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Check(context.Background()))
}
