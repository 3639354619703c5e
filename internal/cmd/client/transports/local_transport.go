package transports

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/rzbill/blocklog/internal/blobstore"
	"github.com/rzbill/blocklog/internal/wal"
)

// LocalTransport runs cursor commands in-process against a cursor store.
type LocalTransport struct {
	store   *wal.CursorStore
	closeFn func() error
}

// NewLocalTransport uses store; closeFn, if set, runs on Close.
func NewLocalTransport(store *wal.CursorStore, closeFn func() error) *LocalTransport {
	return &LocalTransport{store: store, closeFn: closeFn}
}

func parseName(s string) (wal.CursorName, error) {
	name, ok := wal.NewCursorName(s)
	if !ok {
		return wal.CursorName{}, errors.Newf("invalid cursor name %q", s)
	}
	return name, nil
}

func witnessRecord(name wal.CursorName, w wal.Witness) CursorRecord {
	return CursorRecord{Name: name.String(), Cursor: w.Cursor(), ETag: string(w.ETag())}
}

func (t *LocalTransport) Load(ctx context.Context, s string) (CursorRecord, error) {
	name, err := parseName(s)
	if err != nil {
		return CursorRecord{}, err
	}
	w, err := t.store.Load(ctx, name)
	if err != nil {
		return CursorRecord{}, err
	}
	return witnessRecord(name, w), nil
}

func (t *LocalTransport) Init(ctx context.Context, s string, cursor wal.Cursor) (CursorRecord, error) {
	name, err := parseName(s)
	if err != nil {
		return CursorRecord{}, err
	}
	w, err := t.store.Init(ctx, name, cursor)
	if err != nil {
		return CursorRecord{}, err
	}
	return witnessRecord(name, w), nil
}

func (t *LocalTransport) Save(ctx context.Context, s string, cursor wal.Cursor, etag string) (CursorRecord, error) {
	name, err := parseName(s)
	if err != nil {
		return CursorRecord{}, err
	}
	w, err := t.store.Save(ctx, name, cursor, wal.WitnessFromETag(blobstore.ETag(etag), cursor))
	if err != nil {
		return CursorRecord{}, err
	}
	return witnessRecord(name, w), nil
}

func (t *LocalTransport) List(ctx context.Context) ([]string, error) {
	names, err := t.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out, nil
}

func (t *LocalTransport) Close() error {
	if t.closeFn == nil {
		return nil
	}
	return t.closeFn()
}
