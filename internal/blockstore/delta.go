package blockstore

import (
	"sync"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/btree"
)

type deltaEntry struct {
	key   CompositeKey
	value string
}

func lessEntry(a, b deltaEntry) bool { return a.key.Less(b.key) }

func newEntryTree() *btree.BTreeG[deltaEntry] {
	// mu guards the tree, so its internal locking is disabled.
	return btree.NewBTreeGOptions(lessEntry, btree.Options{NoLocks: true})
}

// DeltaBuffer stages sorted (prefix, key) -> value entries for a block that
// has not been written yet. A *DeltaBuffer is a shared handle: any number of
// readers may use it concurrently with one writer at a time.
type DeltaBuffer struct {
	kind KeyKind

	mu      sync.RWMutex
	storage *btree.BTreeG[deltaEntry]
	sizes   SizeTracker
}

// NewDeltaBuffer returns an empty buffer whose keys are of the given kind.
func NewDeltaBuffer(kind KeyKind) *DeltaBuffer {
	return &DeltaBuffer{kind: kind, storage: newEntryTree()}
}

// KeyKind returns the kind of key column this buffer produces.
func (d *DeltaBuffer) KeyKind() KeyKind { return d.kind }

// Add inserts or replaces the value stored at (prefix, key). A replaced
// entry's sizes are removed from the tracker before the new ones are added.
func (d *DeltaBuffer) Add(prefix string, key Key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := deltaEntry{key: CompositeKey{Prefix: prefix, Key: key}, value: value}
	if old, replaced := d.storage.Set(e); replaced {
		d.sizes.subtractEntry(old.key.Prefix, old.key.Key, old.value)
	}
	d.sizes.addEntry(prefix, key, value)
}

// Delete removes (prefix, key) if present.
func (d *DeltaBuffer) Delete(prefix string, key Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.storage.Delete(deltaEntry{key: CompositeKey{Prefix: prefix, Key: key}}); ok {
		d.sizes.subtractEntry(old.key.Prefix, old.key.Key, old.value)
	}
}

// Get returns the value stored at (prefix, key).
func (d *DeltaBuffer) Get(prefix string, key Key) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.storage.Get(deltaEntry{key: CompositeKey{Prefix: prefix, Key: key}})
	return e.value, ok
}

// MinKey returns the smallest key in the buffer.
func (d *DeltaBuffer) MinKey() (CompositeKey, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.storage.Min()
	return e.key, ok
}

// Len returns the number of entries.
func (d *DeltaBuffer) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.storage.Len()
}

// Sizes returns a snapshot of the raw byte totals.
func (d *DeltaBuffer) Sizes() SizeTracker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sizes
}

func (d *DeltaBuffer) PrefixSize() int { return d.Sizes().PrefixSize() }
func (d *DeltaBuffer) KeySize() int    { return d.Sizes().KeySize() }
func (d *DeltaBuffer) ValueSize() int  { return d.Sizes().ValueSize() }

// Size estimates the bytes the buffer occupies once written as Arrow
// columns: padded data buffers plus prefix, key and value offset buffers.
func (d *DeltaBuffer) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return estimateSize(d.kind, d.sizes, d.storage.Len())
}

func estimateSize(kind KeyKind, s SizeTracker, n int) int {
	return s.PaddedPrefixSize() +
		s.PaddedKeySize() +
		s.PaddedValueSize() +
		OffsetBufferSize(n) +
		kind.OffsetSize(n) +
		OffsetBufferSize(n)
}

// BuildKeys appends every key to builder in ascending order and returns it.
func (d *DeltaBuffer) BuildKeys(builder *KeyBuilder) *KeyBuilder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.storage.Scan(func(e deltaEntry) bool {
		builder.AddKey(e.key)
		return true
	})
	return builder
}

type splitPlan struct {
	boundary CompositeKey
	// retained holds the sizes of every entry before boundary.
	retained SizeTracker
	// total is the buffer's tracker as observed during the walk.
	total SizeTracker
}

// planSplit walks the entries in order until the estimated size of the
// entries seen so far exceeds splitSize. The boundary is the key after the
// first entry that crosses the budget. If that entry is the last one, or the
// budget is never crossed, the boundary is the last key.
func (d *DeltaBuffer) planSplit(splitSize int) (splitPlan, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	plan := splitPlan{total: d.sizes}
	var (
		seen    SizeTracker
		last    deltaEntry
		index   int
		crossed bool
		found   bool
	)
	d.storage.Scan(func(e deltaEntry) bool {
		if crossed {
			plan.boundary = e.key
			plan.retained = seen
			found = true
			return false
		}
		seen.addEntry(e.key.Prefix, e.key.Key, e.value)
		if estimateSize(d.kind, seen, index+1) > splitSize {
			crossed = true
		}
		last = e
		index++
		return true
	})
	if found {
		return plan, true
	}
	if index == 0 {
		return splitPlan{}, false
	}
	// The last key moves to the new buffer.
	plan.boundary = last.key
	plan.retained = seen
	plan.retained.subtractEntry(last.key.Prefix, last.key.Key, last.value)
	return plan, true
}

// Split keeps the entries before the split boundary and moves the rest into a
// new buffer, which it returns together with the boundary key. The boundary is
// chosen from a read-locked pass over the entries; the move happens under a
// separate write lock, so callers must not mutate d while a split is running.
// Split panics if d is empty.
func (d *DeltaBuffer) Split(splitSize int) (CompositeKey, *DeltaBuffer) {
	plan, ok := d.planSplit(splitSize)
	if !ok {
		panic(errors.AssertionFailedf("blockstore: a delta buffer must hold at least one entry to be split"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tail := newEntryTree()
	var moved []deltaEntry
	d.storage.Ascend(deltaEntry{key: plan.boundary}, func(e deltaEntry) bool {
		moved = append(moved, e)
		return true
	})
	for _, e := range moved {
		d.storage.Delete(e)
		tail.Set(e)
	}
	d.sizes = plan.retained

	return plan.boundary, &DeltaBuffer{
		kind:    d.kind,
		storage: tail,
		sizes:   plan.total.Minus(plan.retained),
	}
}

// ToArrow builds the block's non-nullable "value" column, in key order.
// The caller owns the returned array and must Release it.
func (d *DeltaBuffer) ToArrow(mem memory.Allocator) (arrow.Field, arrow.Array) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b := array.NewStringBuilder(mem)
	defer b.Release()
	if n := d.storage.Len(); n > 0 {
		b.Reserve(n)
		b.ReserveData(d.sizes.ValueSize())
	}
	d.storage.Scan(func(e deltaEntry) bool {
		b.Append(e.value)
		return true
	})
	return arrow.Field{Name: "value", Type: arrow.BinaryTypes.String, Nullable: false}, b.NewArray()
}
