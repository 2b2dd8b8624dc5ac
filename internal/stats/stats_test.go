package stats

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counters(t *testing.T) map[string]Counter {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "stats.db"), map[string]int64{FiltersCount: 56})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Counter{
		"memory": NewMemory(map[string]int64{FiltersCount: 56}),
		"sqlite": db,
	}
}

func TestCounter_Increment(t *testing.T) {
	ctx := context.Background()
	for name, c := range counters(t) {
		t.Run(name, func(t *testing.T) {
			v, err := c.Increment(ctx, PhotosEdited, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(1), v)

			v, err = c.Increment(ctx, PhotosEdited, 2)
			require.NoError(t, err)
			assert.Equal(t, int64(3), v)

			got, err := c.Get(ctx, PhotosEdited)
			require.NoError(t, err)
			assert.Equal(t, int64(3), got)

			missing, err := c.Get(ctx, "nope")
			require.NoError(t, err)
			assert.Zero(t, missing)

			snap, err := c.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]int64{PhotosEdited: 3, FiltersCount: 56}, snap)
			assert.Equal(t, []string{FiltersCount, PhotosEdited}, Names(snap))
		})
	}
}

func TestCounter_Concurrent(t *testing.T) {
	ctx := context.Background()
	for name, c := range counters(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						_, err := c.Increment(ctx, ActiveUsers, 1)
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			v, err := c.Get(ctx, ActiveUsers)
			require.NoError(t, err)
			assert.Equal(t, int64(80), v)
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.db")

	db, err := OpenSQLite(path, map[string]int64{FiltersCount: 56})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := db.Increment(ctx, PhotosEdited, 1)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	// Defaults never overwrite stored values.
	db, err = OpenSQLite(path, map[string]int64{FiltersCount: 1, PhotosEdited: 0})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	snap, err := db.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap[PhotosEdited])
	assert.Equal(t, int64(56), snap[FiltersCount])
}

func TestSQLite_BatchFlush(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "stats.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < DefaultBatchSize-1; i++ {
		_, err := db.Increment(ctx, PhotosEdited, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, DefaultBatchSize-1, db.npending)

	v, err := db.Increment(ctx, PhotosEdited, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultBatchSize), v)
	assert.Zero(t, db.npending)

	var stored int64
	require.NoError(t, db.db.QueryRow("SELECT value FROM counters WHERE name = ?", PhotosEdited).Scan(&stored))
	assert.Equal(t, int64(DefaultBatchSize), stored)
}
