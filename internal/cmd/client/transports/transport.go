package transports

import (
	"context"

	"github.com/rzbill/blocklog/internal/wal"
)

// CursorRecord is a cursor together with the ETag it was read or written at.
type CursorRecord struct {
	Name   string     `json:"name"`
	Cursor wal.Cursor `json:"cursor"`
	ETag   string     `json:"etag"`
}

// CursorsTransport abstracts where the CLI's cursor commands run: against a
// server over gRPC or directly against a local data dir. Conflicts are
// reported so that errors.Is matches wal.ErrConflictOnCreate and
// wal.ErrConflictOnUpdate, and a missing cursor matches blobstore.ErrNotFound.
type CursorsTransport interface {
	Load(ctx context.Context, name string) (CursorRecord, error)
	Init(ctx context.Context, name string, cursor wal.Cursor) (CursorRecord, error)
	Save(ctx context.Context, name string, cursor wal.Cursor, etag string) (CursorRecord, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}
