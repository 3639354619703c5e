// Package blobstore defines the blob storage contract used for durable
// cursors and provides two implementations.
//
// Every object carries an ETag that changes on each successful write. Puts
// may be conditional:
//
//	etag, err := s.PutBytes(ctx, "log/cursor/compactor.json", body, blobstore.PutIfNotExists())
//	// ...
//	etag, err = s.PutBytes(ctx, "log/cursor/compactor.json", body2, blobstore.PutIfMatches(etag))
//	if errors.Is(err, blobstore.ErrPreconditionFailed) {
//	    // someone else wrote in between; reload and retry
//	}
//
// PebbleStore persists objects in a local Pebble database. MemoryStore keeps
// them in process and is intended for tests and ephemeral tooling.
package blobstore
