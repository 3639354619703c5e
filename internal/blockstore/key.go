package blockstore

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// KeyKind identifies how a block's key column is represented.
type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindUint32
	KeyKindFloat32
	KeyKindBool
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindString:
		return "string"
	case KeyKindUint32:
		return "uint32"
	case KeyKindFloat32:
		return "float32"
	case KeyKindBool:
		return "bool"
	default:
		return fmt.Sprintf("KeyKind(%d)", uint8(k))
	}
}

// ParseKeyKind is the inverse of KeyKind.String.
func ParseKeyKind(s string) (KeyKind, bool) {
	for _, k := range []KeyKind{KeyKindString, KeyKindUint32, KeyKindFloat32, KeyKindBool} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// OffsetSize is the size in bytes of the key column's offset buffer for
// count keys. Variable-width keys use 4-byte offsets; fixed-width keys have
// no offset buffer.
func (k KeyKind) OffsetSize(count int) int {
	if k == KeyKindString {
		return OffsetBufferSize(count)
	}
	return 0
}

// ArrowType is the Arrow type of the key column.
func (k KeyKind) ArrowType() arrow.DataType {
	switch k {
	case KeyKindUint32:
		return arrow.PrimitiveTypes.Uint32
	case KeyKindFloat32:
		return arrow.PrimitiveTypes.Float32
	case KeyKindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// ParseKey parses the textual form of a key of the given kind, as printed by
// the key's String method.
func (k KeyKind) ParseKey(s string) (Key, error) {
	switch k {
	case KeyKindString:
		return StringKey(s), nil
	case KeyKindUint32:
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "blockstore: parse uint32 key %q", s)
		}
		return Uint32Key(v), nil
	case KeyKindFloat32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "blockstore: parse float32 key %q", s)
		}
		return Float32Key(v), nil
	case KeyKindBool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Wrapf(err, "blockstore: parse bool key %q", s)
		}
		return BoolKey(v), nil
	}
	return nil, errors.Newf("blockstore: unknown key kind %d", uint8(k))
}

// Key is the user key half of a CompositeKey.
type Key interface {
	Kind() KeyKind
	// Size is the encoded length of the key in bytes.
	Size() int
	// Compare orders keys of the same kind by value and keys of different
	// kinds by kind.
	Compare(other Key) int
	fmt.Stringer
}

type (
	StringKey  string
	Uint32Key  uint32
	Float32Key float32
	BoolKey    bool
)

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (k StringKey) Kind() KeyKind  { return KeyKindString }
func (k StringKey) Size() int      { return len(k) }
func (k StringKey) String() string { return string(k) }
func (k StringKey) Compare(other Key) int {
	o, ok := other.(StringKey)
	if !ok {
		return compareOrdered(k.Kind(), other.Kind())
	}
	return compareOrdered(k, o)
}

func (k Uint32Key) Kind() KeyKind  { return KeyKindUint32 }
func (k Uint32Key) Size() int      { return 4 }
func (k Uint32Key) String() string { return fmt.Sprintf("%d", uint32(k)) }
func (k Uint32Key) Compare(other Key) int {
	o, ok := other.(Uint32Key)
	if !ok {
		return compareOrdered(k.Kind(), other.Kind())
	}
	return compareOrdered(k, o)
}

func (k Float32Key) Kind() KeyKind  { return KeyKindFloat32 }
func (k Float32Key) Size() int      { return 4 }
func (k Float32Key) String() string { return fmt.Sprintf("%g", float32(k)) }

// Compare places NaN before every other value so the order stays total.
func (k Float32Key) Compare(other Key) int {
	o, ok := other.(Float32Key)
	if !ok {
		return compareOrdered(k.Kind(), other.Kind())
	}
	an, bn := math.IsNaN(float64(k)), math.IsNaN(float64(o))
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return compareOrdered(k, o)
}

func (k BoolKey) Kind() KeyKind  { return KeyKindBool }
func (k BoolKey) Size() int      { return 1 }
func (k BoolKey) String() string { return fmt.Sprintf("%t", bool(k)) }
func (k BoolKey) Compare(other Key) int {
	o, ok := other.(BoolKey)
	if !ok {
		return compareOrdered(k.Kind(), other.Kind())
	}
	switch {
	case k == o:
		return 0
	case !bool(k):
		return -1
	}
	return 1
}

// CompositeKey is the sort key of a delta buffer: prefix first, then key.
type CompositeKey struct {
	Prefix string
	Key    Key
}

// Compare returns -1, 0 or 1.
func (c CompositeKey) Compare(o CompositeKey) int {
	if r := compareOrdered(c.Prefix, o.Prefix); r != 0 {
		return r
	}
	return c.Key.Compare(o.Key)
}

// Less reports whether c sorts before o.
func (c CompositeKey) Less(o CompositeKey) bool { return c.Compare(o) < 0 }

func (c CompositeKey) String() string { return c.Prefix + "/" + c.Key.String() }
