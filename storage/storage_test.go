package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testQuotaStorage runs the same checks against every backend.
func testQuotaStorage(t *testing.T, store QuotaStorage, base int64) {
	ctx := context.Background()

	t.Run("get unknown user", func(t *testing.T) {
		user, err := store.GetUser(ctx, base+1)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("upsert then get", func(t *testing.T) {
		in := &UserRecord{
			UserId:        base + 2,
			Username:      "reza",
			FirstName:     "رضا",
			LastName:      "Karimi",
			DailyRequests: 3,
			TotalRequests: 7,
		}
		require.NoError(t, store.UpsertUser(ctx, in))
		assert.False(t, in.CreatedAt.IsZero())

		got, err := store.GetUser(ctx, base+2)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, in.UserId, got.UserId)
		assert.Equal(t, in.Username, got.Username)
		assert.Equal(t, in.FirstName, got.FirstName)
		assert.Equal(t, in.LastName, got.LastName)
		assert.Equal(t, 3, got.DailyRequests)
		assert.Equal(t, 7, got.TotalRequests)
		assert.WithinDuration(t, in.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("upsert keeps created_at", func(t *testing.T) {
		first := &UserRecord{UserId: base + 3, FirstName: "a"}
		require.NoError(t, store.UpsertUser(ctx, first))
		created := first.CreatedAt

		second := &UserRecord{UserId: base + 3, FirstName: "b", CreatedAt: created.Add(time.Hour)}
		require.NoError(t, store.UpsertUser(ctx, second))

		got, err := store.GetUser(ctx, base+3)
		require.NoError(t, err)
		assert.Equal(t, "b", got.FirstName)
		assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
	})

	t.Run("increment n times", func(t *testing.T) {
		require.NoError(t, store.UpsertUser(ctx, &UserRecord{UserId: base + 4}))
		for i := 0; i < 5; i++ {
			require.NoError(t, store.IncrementRequests(ctx, base+4))
		}
		got, err := store.GetUser(ctx, base+4)
		require.NoError(t, err)
		assert.Equal(t, 5, got.DailyRequests)
		assert.Equal(t, 5, got.TotalRequests)
	})

	t.Run("increment unknown user", func(t *testing.T) {
		err := store.IncrementRequests(ctx, base+5)
		assert.ErrorIs(t, err, ErrUserNotFound)
		got, err := store.GetUser(ctx, base+5)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("concurrent increments", func(t *testing.T) {
		require.NoError(t, store.UpsertUser(ctx, &UserRecord{UserId: base + 6}))
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, store.IncrementRequests(ctx, base+6))
			}()
		}
		wg.Wait()
		got, err := store.GetUser(ctx, base+6)
		require.NoError(t, err)
		assert.Equal(t, 20, got.DailyRequests)
		assert.Equal(t, 20, got.TotalRequests)
	})

	t.Run("reset daily keeps totals", func(t *testing.T) {
		require.NoError(t, store.UpsertUser(ctx, &UserRecord{UserId: base + 7}))
		require.NoError(t, store.IncrementRequests(ctx, base+7))
		require.NoError(t, store.IncrementRequests(ctx, base+7))

		n, err := store.ResetDaily(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(2))

		for _, id := range []int64{base + 4, base + 7} {
			got, err := store.GetUser(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 0, got.DailyRequests)
			assert.Positive(t, got.TotalRequests)
		}
	})
}

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	testQuotaStorage(t, store, 0)
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	require.NoError(t, store.UpsertUser(ctx, &UserRecord{UserId: 1}))

	got, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	got.DailyRequests = 99

	again, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, again.DailyRequests)
}

func TestSqliteStorage(t *testing.T) {
	store, err := NewSqliteStorage(filepath.Join(t.TempDir(), "data", "bot_data.db"), discardLogger())
	require.NoError(t, err)
	defer store.Close()
	testQuotaStorage(t, store, 0)
}

func TestSqliteStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot_data.db")

	store, err := NewSqliteStorage(path, discardLogger())
	require.NoError(t, err)
	require.NoError(t, store.UpsertUser(ctx, &UserRecord{UserId: 42, Username: "kept"}))
	require.NoError(t, store.IncrementRequests(ctx, 42))
	require.NoError(t, store.Close())

	store, err = NewSqliteStorage(path, discardLogger())
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "kept", got.Username)
	assert.Equal(t, 1, got.TotalRequests)
}
