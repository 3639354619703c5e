package wal

import (
	"context"
	"sync"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/blocklog/internal/blobstore"
)

func TestLogPositionOrdering(t *testing.T) {
	a, b := LogPositionFromOffset(3), LogPositionFromOffset(7)
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a), "Before must be strict")
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, b, a.Add(4))
}

func TestAdvanceConcurrentWriters(t *testing.T) {
	const (
		writers   = 8
		perWriter = 25
	)
	ctx := context.Background()
	backend := newPebbleBackend(t)
	name := mustName(t, "counter")
	_, err := NewCursorStore(CursorStoreOptions{}, backend, "log", "seed").Init(ctx, name, Cursor{})
	require.NoError(t, err)

	pool, err := ants.NewPool(writers)
	require.NoError(t, err)
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < writers; i++ {
		cs := NewCursorStore(CursorStoreOptions{Concurrency: 2}, backend, "log", "writer")
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := cs.Advance(ctx, name, func(cur Cursor) (Cursor, bool) {
					cur.Position = cur.Position.Add(1)
					return cur, true
				}, 1000)
				if err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
					return
				}
			}
		}))
	}
	wg.Wait()
	require.Empty(t, errs)

	w, err := NewCursorStore(CursorStoreOptions{}, backend, "log", "reader").Load(ctx, name)
	require.NoError(t, err)
	// no increment was lost
	assert.Equal(t, uint64(writers*perWriter), w.Cursor().Position.Offset)
	assert.Equal(t, "writer", w.Cursor().Writer)
}

// racingStore lets another writer bump the cursor between every load and save.
type racingStore struct {
	blobstore.Store
	rival *CursorStore
	name  CursorName
}

func (s *racingStore) GetWithETag(ctx context.Context, path string) ([]byte, blobstore.ETag, error) {
	data, etag, err := s.Store.GetWithETag(ctx, path)
	if err == nil {
		w, lerr := s.rival.Load(ctx, s.name)
		if lerr == nil {
			_, _ = s.rival.Save(ctx, s.name, w.Cursor(), w)
		}
	}
	return data, etag, err
}

func TestAdvanceGivesUp(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	name := mustName(t, "contended")
	rival := NewCursorStore(CursorStoreOptions{}, mem, "log", "rival")
	_, err := rival.Init(ctx, name, Cursor{})
	require.NoError(t, err)

	cs := NewCursorStore(CursorStoreOptions{}, &racingStore{Store: mem, rival: rival, name: name}, "log", "loser")
	calls := 0
	_, err = cs.Advance(ctx, name, func(cur Cursor) (Cursor, bool) {
		calls++
		return cur, true
	}, 3)
	assert.ErrorIs(t, err, ErrTooManyConflicts)
	assert.Equal(t, 3, calls)
}

func TestAdvanceNoop(t *testing.T) {
	ctx := context.Background()
	cs := NewCursorStore(CursorStoreOptions{}, blobstore.NewMemoryStore(), "", "w")
	name := mustName(t, "still")
	w0, err := cs.Init(ctx, name, Cursor{Position: LogPositionFromOffset(5)})
	require.NoError(t, err)

	w1, err := cs.Advance(ctx, name, func(cur Cursor) (Cursor, bool) { return cur, false }, 0)
	require.NoError(t, err)
	assert.Equal(t, w0.ETag(), w1.ETag())
}

func TestAdvanceToNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	cs := NewCursorStore(CursorStoreOptions{}, blobstore.NewMemoryStore(), "log", "w")

	w, err := cs.AdvanceTo(ctx, CompactionCursor, LogPositionFromOffset(10), 1)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = cs.LoadOrInit(ctx, CompactionCursor, Cursor{})
	require.NoError(t, err)

	w, err = cs.AdvanceTo(ctx, CompactionCursor, LogPositionFromOffset(10), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w.Cursor().Position.Offset)
	assert.Equal(t, uint64(100), w.Cursor().EpochMicros)

	w2, err := cs.AdvanceTo(ctx, CompactionCursor, LogPositionFromOffset(4), 200)
	require.NoError(t, err)
	assert.Equal(t, w.ETag(), w2.ETag())
	assert.Equal(t, uint64(10), w2.Cursor().Position.Offset)
}

func TestLoadOrInit(t *testing.T) {
	ctx := context.Background()
	cs := NewCursorStore(CursorStoreOptions{}, blobstore.NewMemoryStore(), "log", "w")
	name := mustName(t, "lazy")

	w1, err := cs.LoadOrInit(ctx, name, Cursor{Position: LogPositionFromOffset(9)})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), w1.Cursor().Position.Offset)

	w2, err := cs.LoadOrInit(ctx, name, Cursor{Position: LogPositionFromOffset(1)})
	require.NoError(t, err)
	assert.Equal(t, w1.ETag(), w2.ETag())
	assert.Equal(t, uint64(9), w2.Cursor().Position.Offset)
}
