// Package wal persists named log cursors in blob storage.
//
// # Overview
//
// A cursor records a log position, the wall-clock time of the write in
// microseconds and the identity of the writer. Each cursor lives in its own
// blob at {prefix}/cursor/{name}.json:
//
//	{"position":{"offset":42},"epoch_us":1700000000000000,"writer":"compactor-0"}
//
// # Updates
//
// There are no locks. Every read returns a Witness holding the blob's ETag,
// and writes are conditional on it:
//
//	w, err := store.Init(ctx, name, wal.Cursor{})          // if-not-exists
//	w, err = store.Save(ctx, name, next, w)                // if-matches(w)
//	if errors.Is(err, wal.ErrConflictOnUpdate) {
//	    w, err = store.Load(ctx, name)                     // reload and retry
//	}
//
// Advance wraps that loop. Two writers, in one process or many, can only
// both succeed if their saves are serialized by the blob store.
//
// A CursorStore bounds its in-flight blob store calls with a permit pool; each
// Load, Init, Save and List holds one permit for the duration of its call.
package wal
