package blockstore

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/cockroachdb/errors"
)

// KeyBuilder accumulates composite keys, in the order they are added, for
// conversion into a block's prefix and key columns.
type KeyBuilder struct {
	kind KeyKind
	keys []CompositeKey
}

// NewKeyBuilder returns a builder for keys of the given kind.
func NewKeyBuilder(kind KeyKind, capacity int) *KeyBuilder {
	return &KeyBuilder{kind: kind, keys: make([]CompositeKey, 0, capacity)}
}

func (b *KeyBuilder) AddKey(k CompositeKey) { b.keys = append(b.keys, k) }

func (b *KeyBuilder) Len() int { return len(b.keys) }

// Keys returns the accumulated keys. The slice must not be modified.
func (b *KeyBuilder) Keys() []CompositeKey { return b.keys }

// Finish builds the "prefix" and "key" columns. The caller owns the returned
// arrays and must Release them.
func (b *KeyBuilder) Finish(mem memory.Allocator) ([]arrow.Field, []arrow.Array, error) {
	prefixes := array.NewStringBuilder(mem)
	defer prefixes.Release()
	prefixes.Reserve(len(b.keys))

	keys := array.NewBuilder(mem, b.kind.ArrowType())
	defer keys.Release()
	keys.Reserve(len(b.keys))

	for i, k := range b.keys {
		if k.Key.Kind() != b.kind {
			return nil, nil, errors.Newf("blockstore: key %d (%s) is %s, builder expects %s", i, k, k.Key.Kind(), b.kind)
		}
		prefixes.Append(k.Prefix)
		switch kb := keys.(type) {
		case *array.StringBuilder:
			kb.Append(string(k.Key.(StringKey)))
		case *array.Uint32Builder:
			kb.Append(uint32(k.Key.(Uint32Key)))
		case *array.Float32Builder:
			kb.Append(float32(k.Key.(Float32Key)))
		case *array.BooleanBuilder:
			kb.Append(bool(k.Key.(BoolKey)))
		default:
			return nil, nil, errors.AssertionFailedf("blockstore: no key builder for %s", b.kind)
		}
	}

	fields := []arrow.Field{
		{Name: "prefix", Type: arrow.BinaryTypes.String},
		{Name: "key", Type: b.kind.ArrowType()},
	}
	return fields, []arrow.Array{prefixes.NewArray(), keys.NewArray()}, nil
}

// BuildBlock turns a delta buffer into an Arrow record with the columns
// prefix, key and value. The caller owns the record and must Release it.
func BuildBlock(d *DeltaBuffer, mem memory.Allocator) (arrow.Record, error) {
	kb := d.BuildKeys(NewKeyBuilder(d.KeyKind(), d.Len()))
	fields, cols, err := kb.Finish(mem)
	if err != nil {
		return nil, err
	}
	valueField, values := d.ToArrow(mem)
	cols = append(cols, values)
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	if values.Len() != kb.Len() {
		return nil, errors.Newf("blockstore: buffer changed while building block: %d keys, %d values", kb.Len(), values.Len())
	}

	schema := arrow.NewSchema(append(fields, valueField), nil)
	return array.NewRecord(schema, cols, int64(kb.Len())), nil
}
