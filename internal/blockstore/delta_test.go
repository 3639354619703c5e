package blockstore

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exactSizes recomputes the tracker from the stored entries.
func exactSizes(d *DeltaBuffer) SizeTracker {
	var s SizeTracker
	d.storage.Scan(func(e deltaEntry) bool {
		s.addEntry(e.key.Prefix, e.key.Key, e.value)
		return true
	})
	return s
}

func keysOf(d *DeltaBuffer) []CompositeKey {
	return d.BuildKeys(NewKeyBuilder(d.KeyKind(), d.Len())).Keys()
}

// fill adds n entries p/k00.. with 100-byte values.
func fill(d *DeltaBuffer, n int) {
	for i := 0; i < n; i++ {
		d.Add("p", StringKey(fmt.Sprintf("k%d", i)), strings.Repeat("v", 100))
	}
}

func TestAddDeleteAccounting(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		prefix := fmt.Sprintf("p%d", rng.Intn(3))
		key := StringKey(fmt.Sprintf("key-%d", rng.Intn(50)))
		if rng.Intn(3) == 0 {
			d.Delete(prefix, key)
		} else {
			d.Add(prefix, key, strings.Repeat("x", rng.Intn(40)))
		}
		require.Equal(t, exactSizes(d), d.Sizes(), "op %d", i)
	}
}

func TestAddThenDeleteRestoresSizes(t *testing.T) {
	d := NewDeltaBuffer(KeyKindUint32)
	d.Add("a", Uint32Key(1), "one")
	before := d.Sizes()

	d.Add("bb", Uint32Key(2), "two-two")
	d.Delete("bb", Uint32Key(2))
	assert.Equal(t, before, d.Sizes())

	// deleting an absent key is a no-op
	d.Delete("zz", Uint32Key(9))
	assert.Equal(t, before, d.Sizes())
	assert.Equal(t, 1, d.Len())
}

func TestOverwriteReplacesValueSize(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	d.Add("p", StringKey("k"), "long value")
	d.Add("p", StringKey("k"), "v")
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, NewSizeTrackerWithValues(1, 1, 1), d.Sizes())
	v, ok := d.Get("p", StringKey("k"))
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMinKey(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	_, ok := d.MinKey()
	assert.False(t, ok)

	d.Add("b", StringKey("a"), "")
	d.Add("a", StringKey("z"), "")
	d.Add("a", StringKey("c"), "")
	k, ok := d.MinKey()
	require.True(t, ok)
	assert.Equal(t, CompositeKey{Prefix: "a", Key: StringKey("c")}, k)
}

func TestSizeEstimate(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	// empty buffer still has three offset buffers
	assert.Equal(t, 3*64, d.Size())

	d.Add("p", StringKey("k"), "v")
	assert.Equal(t, 3*64+3*64, d.Size())

	u := NewDeltaBuffer(KeyKindUint32)
	u.Add("p", Uint32Key(1), "v")
	// fixed-width keys have no key offset buffer
	assert.Equal(t, 3*64+2*64, u.Size())

	for i := 0; i < 15; i++ {
		u.Add("p", Uint32Key(uint32(i+2)), "v")
	}
	// 16 entries: offsets grow to 128 bytes
	assert.Equal(t, 16, u.Len())
	assert.Equal(t, 64+64+64+128+128, u.Size())
}

func TestSplitBoundaryAfterFirstCrossing(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	fill(d, 10)

	// Estimates for the first n entries: 448, 576, 640, 768, ...
	boundary, rest := d.Split(600)
	assert.Equal(t, CompositeKey{Prefix: "p", Key: StringKey("k3")}, boundary)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 7, rest.Len())

	assert.Equal(t, exactSizes(d), d.Sizes())
	assert.Equal(t, exactSizes(rest), rest.Sizes())
	assert.Equal(t, KeyKindString, rest.KeyKind())
}

func TestSplitWithinBudgetMovesLastKey(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	fill(d, 5)
	boundary, rest := d.Split(1 << 20)
	assert.Equal(t, CompositeKey{Prefix: "p", Key: StringKey("k4")}, boundary)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, 1, rest.Len())
	assert.Equal(t, exactSizes(d), d.Sizes())
	assert.Equal(t, exactSizes(rest), rest.Sizes())
}

func TestSplitCrossingAtLastKey(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	fill(d, 3)
	// crossing happens only at the third entry (640 > 600)
	boundary, rest := d.Split(600)
	assert.Equal(t, CompositeKey{Prefix: "p", Key: StringKey("k2")}, boundary)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 1, rest.Len())
	assert.Equal(t, exactSizes(rest), rest.Sizes())
}

func TestSplitSingleEntry(t *testing.T) {
	d := NewDeltaBuffer(KeyKindBool)
	d.Add("p", BoolKey(true), "x")
	boundary, rest := d.Split(1)
	assert.Equal(t, CompositeKey{Prefix: "p", Key: BoolKey(true)}, boundary)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, SizeTracker{}, d.Sizes())
	assert.Equal(t, NewSizeTrackerWithValues(1, 1, 1), rest.Sizes())
}

func TestSplitEmptyPanics(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	assert.Panics(t, func() { d.Split(1024) })
}

func TestSplitPartitionsKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		d := NewDeltaBuffer(KeyKindUint32)
		n := 1 + rng.Intn(200)
		for i := 0; i < n; i++ {
			d.Add(fmt.Sprintf("p%d", rng.Intn(4)), Uint32Key(rng.Uint32()%1000), strings.Repeat("v", rng.Intn(30)))
		}
		original := keysOf(d)
		splitSize := 1 + rng.Intn(8192)

		boundary, rest := d.Split(splitSize)
		left, right := keysOf(d), keysOf(rest)

		require.Equal(t, len(original), len(left)+len(right))
		require.Equal(t, original, append(append([]CompositeKey{}, left...), right...))
		require.NotEmpty(t, right)
		assert.Equal(t, boundary, right[0])
		if len(left) > 0 {
			assert.True(t, left[len(left)-1].Less(right[0]))
		}
		assert.Equal(t, exactSizes(d), d.Sizes())
		assert.Equal(t, exactSizes(rest), rest.Sizes())
	}
}

func TestToArrowValues(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	d := NewDeltaBuffer(KeyKindString)
	d.Add("p", StringKey("b"), "second")
	d.Add("p", StringKey("a"), "first")
	d.Add("o", StringKey("z"), "zeroth")

	field, arr := d.ToArrow(mem)
	defer arr.Release()
	assert.Equal(t, "value", field.Name)
	assert.False(t, field.Nullable)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, field.Type))

	values := arr.(*array.String)
	require.Equal(t, 3, values.Len())
	assert.Equal(t, "zeroth", values.Value(0))
	assert.Equal(t, "first", values.Value(1))
	assert.Equal(t, "second", values.Value(2))
}

func TestToArrowEmpty(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	_, arr := d.ToArrow(memory.DefaultAllocator)
	defer arr.Release()
	assert.Equal(t, 0, arr.Len())
}

func TestBuildBlock(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	d := NewDeltaBuffer(KeyKindUint32)
	d.Add("b", Uint32Key(1), "b1")
	d.Add("a", Uint32Key(9), "a9")
	d.Add("a", Uint32Key(2), "a2")

	rec, err := BuildBlock(d, mem)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(3), rec.NumRows())
	require.Equal(t, []string{"prefix", "key", "value"}, []string{
		rec.Schema().Field(0).Name, rec.Schema().Field(1).Name, rec.Schema().Field(2).Name,
	})
	prefixes := rec.Column(0).(*array.String)
	keys := rec.Column(1).(*array.Uint32)
	values := rec.Column(2).(*array.String)
	assert.Equal(t, []string{"a", "a", "b"}, []string{prefixes.Value(0), prefixes.Value(1), prefixes.Value(2)})
	assert.Equal(t, []uint32{2, 9, 1}, keys.Uint32Values())
	assert.Equal(t, "a2", values.Value(0))
}

func TestKeyBuilderRejectsMixedKinds(t *testing.T) {
	b := NewKeyBuilder(KeyKindString, 2)
	b.AddKey(CompositeKey{Prefix: "p", Key: StringKey("a")})
	b.AddKey(CompositeKey{Prefix: "p", Key: Uint32Key(1)})
	_, _, err := b.Finish(memory.DefaultAllocator)
	assert.Error(t, err)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	d := NewDeltaBuffer(KeyKindString)
	pool, err := ants.NewPool(16)
	require.NoError(t, err)
	defer pool.Release()

	const writers, perWriter = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		w := w
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key := StringKey(fmt.Sprintf("w%d-%04d", w, i))
				d.Add("p", key, "value")
				if i%4 == 0 {
					d.Delete("p", key)
				}
			}
		}))
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = d.Size()
				_, _ = d.MinKey()
			}
		}))
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter*3/4, d.Len())
	assert.Equal(t, exactSizes(d), d.Sizes())
}
