package blobstore

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"

	pebblestore "github.com/rzbill/blocklog/internal/storage/pebble"
)

// Objects are stored under blob/{path} as:
//
//	version(1B) | uvarint(len(etag)) | etag | data
const objectFormatV1 = 1

var blobPrefix = []byte("blob/")

// etagMarkKey holds the last ETag handed out. It is written with every put so
// a reopened store never reissues a tag, even if the clock moved backwards.
var etagMarkKey = []byte("meta/etag")

// PebbleStore keeps blobs in a local Pebble database. Conditional writes are
// serialized by a store-wide mutex, so a PebbleStore must be the only writer
// of its key range.
type PebbleStore struct {
	db    *pebblestore.DB
	mu    sync.Mutex
	etags etagGenerator
}

var _ Store = (*PebbleStore)(nil)

// NewPebbleStore wraps an open Pebble database. ETags continue after the last
// one the database recorded.
func NewPebbleStore(db *pebblestore.DB) (*PebbleStore, error) {
	s := &PebbleStore{db: db}
	mark, err := db.Get(etagMarkKey)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "blobstore: read etag high-water mark")
	}
	if err := s.etags.seed(ETag(mark)); err != nil {
		return nil, err
	}
	return s, nil
}

func blobKey(path string) []byte {
	k := make([]byte, 0, len(blobPrefix)+len(path))
	k = append(k, blobPrefix...)
	return append(k, path...)
}

func encodeObject(etag ETag, data []byte) []byte {
	out := make([]byte, 0, 1+binary.MaxVarintLen64+len(etag)+len(data))
	out = append(out, objectFormatV1)
	out = binary.AppendUvarint(out, uint64(len(etag)))
	out = append(out, etag...)
	return append(out, data...)
}

func decodeObject(b []byte) (ETag, []byte, error) {
	if len(b) == 0 || b[0] != objectFormatV1 {
		return "", nil, errors.New("blobstore: unknown object format")
	}
	n, w := binary.Uvarint(b[1:])
	if w <= 0 || uint64(len(b)-1-w) < n {
		return "", nil, errors.New("blobstore: truncated object header")
	}
	start := 1 + w
	etag := ETag(b[start : start+int(n)])
	return etag, b[start+int(n):], nil
}

func (s *PebbleStore) get(path string) (ETag, []byte, bool, error) {
	raw, err := s.db.Get(blobKey(path))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, errors.Wrapf(err, "get %s", path)
	}
	etag, data, err := decodeObject(raw)
	if err != nil {
		return "", nil, false, errors.Wrapf(err, "get %s", path)
	}
	return etag, data, true, nil
}

func (s *PebbleStore) GetWithETag(ctx context.Context, path string) ([]byte, ETag, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	etag, data, ok, err := s.get(path)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", errors.Wrapf(ErrNotFound, "get %s", path)
	}
	return data, etag, nil
}

func (s *PebbleStore) PutBytes(ctx context.Context, path string, data []byte, opts PutOptions) (ETag, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _, exists, err := s.get(path)
	if err != nil {
		return "", err
	}
	if err := checkPrecondition(path, cur, exists, opts); err != nil {
		return "", err
	}
	etag := s.etags.next()
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(blobKey(path), encodeObject(etag, data), nil); err != nil {
		return "", errors.Wrapf(err, "put %s", path)
	}
	if err := b.Set(etagMarkKey, []byte(etag), nil); err != nil {
		return "", errors.Wrapf(err, "put %s", path)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return "", errors.Wrapf(err, "put %s", path)
	}
	return etag, nil
}

func (s *PebbleStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	err := s.db.ScanPrefix(blobKey(prefix), func(key, _ []byte) bool {
		out = append(out, string(key[len(blobPrefix):]))
		return ctx.Err() == nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", prefix)
	}
	return out, ctx.Err()
}

func (s *PebbleStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok, err := s.get(path); err != nil {
		return err
	} else if !ok {
		return errors.Wrapf(ErrNotFound, "delete %s", path)
	}
	return s.db.Delete(blobKey(path))
}
