package wal

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/rzbill/blocklog/internal/blobstore"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

// DefaultMaxAttempts bounds Advance when the caller passes maxAttempts <= 0.
const DefaultMaxAttempts = 8

// UpdateFunc computes the next cursor from the current one. Returning false
// leaves the cursor untouched.
type UpdateFunc func(current Cursor) (next Cursor, ok bool)

// Advance runs the compare-and-swap loop: load, apply fn, save with the
// loaded witness, and start over when another writer got there first. It
// gives up with ErrTooManyConflicts after maxAttempts conflicting saves.
func (s *CursorStore) Advance(ctx context.Context, name CursorName, fn UpdateFunc, maxAttempts int) (Witness, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		w, err := s.Load(ctx, name)
		if err != nil {
			return Witness{}, err
		}
		next, ok := fn(w.Cursor())
		if !ok {
			return w, nil
		}
		saved, err := s.Save(ctx, name, next, w)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrConflictOnUpdate) {
			return Witness{}, err
		}
		s.logger.Debug("retrying cursor update", logpkg.Str("cursor", name.String()), logpkg.Int("attempt", attempt))
	}
	return Witness{}, errors.Wrapf(ErrTooManyConflicts, "wal: advance cursor %s after %d attempts", name, maxAttempts)
}

// LoadOrInit loads the cursor, creating it with initial if it does not exist.
// A concurrent creator winning the race is not an error; its cursor is loaded.
func (s *CursorStore) LoadOrInit(ctx context.Context, name CursorName, initial Cursor) (Witness, error) {
	w, err := s.Load(ctx, name)
	if err == nil || !errors.Is(err, blobstore.ErrNotFound) {
		return w, err
	}
	w, err = s.Init(ctx, name, initial)
	if errors.Is(err, ErrConflictOnCreate) {
		return s.Load(ctx, name)
	}
	return w, err
}

// AdvanceTo moves the cursor forward to pos, stamping epochMicros. It never
// moves a cursor backwards.
func (s *CursorStore) AdvanceTo(ctx context.Context, name CursorName, pos LogPosition, epochMicros uint64) (Witness, error) {
	return s.Advance(ctx, name, func(cur Cursor) (Cursor, bool) {
		if !cur.Position.Before(pos) {
			return cur, false
		}
		return Cursor{Position: pos, EpochMicros: epochMicros}, true
	}, 0)
}
