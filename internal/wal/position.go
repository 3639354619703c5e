package wal

import "fmt"

// LogPosition is an offset into the log. Positions are totally ordered and
// only move forward.
type LogPosition struct {
	Offset uint64 `json:"offset"`
}

// LogPositionFromOffset wraps a raw offset.
func LogPositionFromOffset(offset uint64) LogPosition {
	return LogPosition{Offset: offset}
}

// Add returns the position n records after p.
func (p LogPosition) Add(n uint64) LogPosition {
	return LogPosition{Offset: p.Offset + n}
}

// Compare returns -1, 0 or 1.
func (p LogPosition) Compare(o LogPosition) int {
	switch {
	case p.Offset < o.Offset:
		return -1
	case p.Offset > o.Offset:
		return 1
	}
	return 0
}

// Before reports whether p is strictly before o.
func (p LogPosition) Before(o LogPosition) bool { return p.Offset < o.Offset }

func (p LogPosition) String() string { return fmt.Sprintf("LogPosition(%d)", p.Offset) }
