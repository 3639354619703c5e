package blockstore

import "github.com/cockroachdb/errors"

// arrowAlignment is the byte alignment of Arrow buffers.
const arrowAlignment = 64

func roundUpToAlignment(n int) int {
	return (n + arrowAlignment - 1) &^ (arrowAlignment - 1)
}

// OffsetBufferSize is the padded size of a 4-byte offset buffer for n
// elements; Arrow stores one more offset than there are elements.
func OffsetBufferSize(n int) int {
	return roundUpToAlignment((n + 1) * 4)
}

// SizeTracker keeps running byte totals for the prefixes, keys and values
// held by a delta buffer.
type SizeTracker struct {
	prefixSize int
	keySize    int
	valueSize  int
}

// NewSizeTrackerWithValues returns a tracker seeded with the given totals.
func NewSizeTrackerWithValues(prefixSize, keySize, valueSize int) SizeTracker {
	return SizeTracker{prefixSize: prefixSize, keySize: keySize, valueSize: valueSize}
}

func (s *SizeTracker) AddPrefixSize(n int) { s.prefixSize += n }
func (s *SizeTracker) AddKeySize(n int)    { s.keySize += n }
func (s *SizeTracker) AddValueSize(n int)  { s.valueSize += n }

func (s *SizeTracker) SubtractPrefixSize(n int) { s.prefixSize = subtract("prefix", s.prefixSize, n) }
func (s *SizeTracker) SubtractKeySize(n int)    { s.keySize = subtract("key", s.keySize, n) }
func (s *SizeTracker) SubtractValueSize(n int)  { s.valueSize = subtract("value", s.valueSize, n) }

// subtract panics on underflow: the tracker only ever subtracts sizes it
// previously added.
func subtract(what string, have, n int) int {
	if n > have {
		panic(errors.AssertionFailedf("blockstore: %s size underflow: %d - %d", what, have, n))
	}
	return have - n
}

func (s SizeTracker) PrefixSize() int { return s.prefixSize }
func (s SizeTracker) KeySize() int    { return s.keySize }
func (s SizeTracker) ValueSize() int  { return s.valueSize }

func (s SizeTracker) PaddedPrefixSize() int { return roundUpToAlignment(s.prefixSize) }
func (s SizeTracker) PaddedKeySize() int    { return roundUpToAlignment(s.keySize) }
func (s SizeTracker) PaddedValueSize() int  { return roundUpToAlignment(s.valueSize) }

// Minus returns s with o's totals removed.
func (s SizeTracker) Minus(o SizeTracker) SizeTracker {
	s.SubtractPrefixSize(o.prefixSize)
	s.SubtractKeySize(o.keySize)
	s.SubtractValueSize(o.valueSize)
	return s
}

func (s *SizeTracker) addEntry(prefix string, key Key, value string) {
	s.AddPrefixSize(len(prefix))
	s.AddKeySize(key.Size())
	s.AddValueSize(len(value))
}

func (s *SizeTracker) subtractEntry(prefix string, key Key, value string) {
	s.SubtractPrefixSize(len(prefix))
	s.SubtractKeySize(key.Size())
	s.SubtractValueSize(len(value))
}
