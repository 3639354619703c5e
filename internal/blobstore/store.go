package blobstore

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ETag identifies one exact version of a stored object.
type ETag string

var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("blobstore: object not found")
	// ErrAlreadyExists is returned by an if-not-exists put on an existing object.
	ErrAlreadyExists = errors.New("blobstore: object already exists")
	// ErrPreconditionFailed is returned by an if-match put whose ETag does not
	// match the current version.
	ErrPreconditionFailed = errors.New("blobstore: precondition failed")
)

// PutOptions carries the write precondition. The zero value is an
// unconditional overwrite.
type PutOptions struct {
	IfNotExists bool
	IfMatch     ETag
}

// PutIfNotExists creates the object only if it is absent.
func PutIfNotExists() PutOptions { return PutOptions{IfNotExists: true} }

// PutIfMatches overwrites the object only if its current ETag equals etag.
func PutIfMatches(etag ETag) PutOptions { return PutOptions{IfMatch: etag} }

// Store is the blob storage surface the cursor store depends on.
//
// GetWithETag returns an empty ETag when the backend reports no version for
// the object. PutBytes returns the new ETag on success, or an empty ETag when
// the backend did not report one.
type Store interface {
	GetWithETag(ctx context.Context, path string) ([]byte, ETag, error)
	PutBytes(ctx context.Context, path string, data []byte, opts PutOptions) (ETag, error)
	// List returns every path starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
}

// checkPrecondition decides whether a put may proceed given the current ETag
// ("" when the object does not exist).
func checkPrecondition(path string, current ETag, exists bool, opts PutOptions) error {
	if opts.IfNotExists && exists {
		return errors.Wrapf(ErrAlreadyExists, "put %s", path)
	}
	if opts.IfMatch != "" && (!exists || current != opts.IfMatch) {
		return errors.Wrapf(ErrPreconditionFailed, "put %s: etag %s", path, opts.IfMatch)
	}
	return nil
}
