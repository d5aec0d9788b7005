//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestBackend starts a disposable Postgres container and opens a Backend
// against it, for exercising the real driver instead of a fake.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("coord_test"),
		postgres.WithUsername("coord_test"),
		postgres.WithPassword("coord_test"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	backend, err := Open(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(backend.Close)

	return backend
}

func TestBackend_PutGetDelete_Integration(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	_, found, err := backend.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, backend.Set(ctx, "k1", []byte("v1")))
	value, found, err := backend.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, backend.Delete(ctx, "k1"))
	_, found, err = backend.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestBackend_Increment_Integration(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	n, err := backend.Increment(ctx, "counter", 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = backend.Increment(ctx, "counter", -1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestBackend_Snapshot_Integration(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "a", []byte("1")))
	require.NoError(t, backend.Set(ctx, "b", []byte("2")))

	snap, err := backend.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("1"), snap["a"])
	require.Equal(t, []byte("2"), snap["b"])
}
