package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

type memObject struct {
	data []byte
	etag ETag
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	etags   etagGenerator
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (m *MemoryStore) GetWithETag(ctx context.Context, path string) ([]byte, ETag, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, "", errors.Wrapf(ErrNotFound, "get %s", path)
	}
	return append([]byte(nil), obj.data...), obj.etag, nil
}

func (m *MemoryStore) PutBytes(ctx context.Context, path string, data []byte, opts PutOptions) (ETag, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.objects[path]
	if err := checkPrecondition(path, cur.etag, exists, opts); err != nil {
		return "", err
	}
	etag := m.etags.next()
	m.objects[path] = memObject{data: append([]byte(nil), data...), etag: etag}
	return etag, nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return errors.Wrapf(ErrNotFound, "delete %s", path)
	}
	delete(m.objects, path)
	return nil
}
