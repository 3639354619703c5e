package wal

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrCorruptCursor matches every *CorruptCursorError.
	ErrCorruptCursor = errors.New("wal: corrupt cursor")
	// ErrConflictOnCreate is returned by Init when the cursor already exists.
	ErrConflictOnCreate = errors.New("wal: cursor already exists")
	// ErrConflictOnUpdate is returned by Save when the witness is stale.
	ErrConflictOnUpdate = errors.New("wal: cursor changed since it was loaded")
	// ErrTooManyConflicts is returned by Advance when every attempt conflicted.
	ErrTooManyConflicts = errors.New("wal: too many conflicting cursor updates")
)

// CorruptCursorError reports a stored cursor that cannot be used: its blob
// has no ETag or its body does not decode.
type CorruptCursorError struct {
	Name string
	Msg  string
}

func (e *CorruptCursorError) Error() string {
	return "wal: corrupt cursor " + e.Name + ": " + e.Msg
}

func (e *CorruptCursorError) Is(target error) bool { return target == ErrCorruptCursor }

// ConflictError is returned when a conditional write loses. It matches
// ErrConflictOnCreate or ErrConflictOnUpdate and unwraps to the backend error.
type ConflictError struct {
	Name string
	kind error
	err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.kind, e.Name, e.err)
}

func (e *ConflictError) Is(target error) bool { return target == e.kind }

func (e *ConflictError) Unwrap() error { return e.err }
