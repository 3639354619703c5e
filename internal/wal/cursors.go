package wal

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"

	"github.com/rzbill/blocklog/internal/blobstore"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

const (
	cursorPathPrefix = "cursor/"
	cursorPathSuffix = ".json"
)

// CursorName is a non-empty name made of ASCII letters, digits and
// underscores.
type CursorName struct {
	name string
}

// CompactionCursor is the cursor the compactor advances.
var CompactionCursor = cursorNameUnchecked("compaction")

// NewCursorName validates name.
func NewCursorName(name string) (CursorName, bool) {
	if !validCursorName(name) {
		return CursorName{}, false
	}
	return CursorName{name: name}, true
}

// cursorNameUnchecked skips validation. The caller guarantees that name is
// valid; use it only for constants and names that were already validated.
func cursorNameUnchecked(name string) CursorName {
	return CursorName{name: name}
}

// CursorNameFromPath is the inverse of Path.
func CursorNameFromPath(path string) (CursorName, bool) {
	rest, ok := strings.CutPrefix(path, cursorPathPrefix)
	if !ok {
		return CursorName{}, false
	}
	name, ok := strings.CutSuffix(rest, cursorPathSuffix)
	if !ok {
		return CursorName{}, false
	}
	return NewCursorName(name)
}

// Path returns the blob path of the cursor relative to the store prefix.
func (n CursorName) Path() string {
	return cursorPathPrefix + n.name + cursorPathSuffix
}

// IsValid reports whether n satisfies the naming rules.
func (n CursorName) IsValid() bool { return validCursorName(n.name) }

func (n CursorName) String() string { return n.name }

func validCursorName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// Cursor is the persisted value of a named cursor.
type Cursor struct {
	Position    LogPosition `json:"position"`
	EpochMicros uint64      `json:"epoch_us"`
	Writer      string      `json:"writer"`
}

// Witness pairs a cursor with the ETag of the blob it was read from or
// written to. Saving requires the witness of the latest version.
type Witness struct {
	etag   blobstore.ETag
	cursor Cursor
}

// WitnessFromETag rebuilds a witness from a version token carried across a
// process boundary, for example in an HTTP If-Match header or a gRPC save
// request. It is only for tokens that Load, Init or Save handed out earlier;
// the store checks the token on Save, so a made-up ETag just conflicts.
func WitnessFromETag(etag blobstore.ETag, cursor Cursor) Witness {
	return Witness{etag: etag, cursor: cursor}
}

func (w Witness) Cursor() Cursor { return w.cursor }

func (w Witness) ETag() blobstore.ETag { return w.etag }

// DefaultConcurrency is the permit count used when CursorStoreOptions leaves
// Concurrency unset.
const DefaultConcurrency = 10

// CursorStoreOptions tunes a CursorStore.
type CursorStoreOptions struct {
	// Concurrency bounds the number of in-flight blob store calls.
	Concurrency int
	Logger      logpkg.Logger
}

// CursorStore persists named cursors in a blob store. Updates are
// compare-and-swap: Load or Init yields a Witness, and Save only succeeds
// while the stored blob still carries the witness's ETag.
type CursorStore struct {
	store  blobstore.Store
	prefix string
	writer string
	sem    *semaphore.Weighted
	logger logpkg.Logger
}

// NewCursorStore stores cursors under prefix and stamps every write with writer.
func NewCursorStore(opts CursorStoreOptions, store blobstore.Store, prefix, writer string) *CursorStore {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &CursorStore{
		store:  store,
		prefix: strings.TrimSuffix(prefix, "/"),
		writer: writer,
		sem:    semaphore.NewWeighted(int64(opts.Concurrency)),
		logger: logger.With(logpkg.Component("cursors"), logpkg.Str("writer", writer)),
	}
}

func (s *CursorStore) Prefix() string { return s.prefix }

func (s *CursorStore) Writer() string { return s.writer }

func (s *CursorStore) path(name CursorName) string {
	if s.prefix == "" {
		return name.Path()
	}
	return s.prefix + "/" + name.Path()
}

// acquire takes one permit; the returned func releases it.
func (s *CursorStore) acquire(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.sem.Release(1) }, nil
}

func (s *CursorStore) corrupt(name CursorName, msg string) error {
	s.logger.Warn("corrupt cursor", logpkg.Str("cursor", name.String()), logpkg.Str("reason", msg))
	return &CorruptCursorError{Name: name.String(), Msg: msg}
}

// Load reads the cursor and the ETag of its blob.
func (s *CursorStore) Load(ctx context.Context, name CursorName) (Witness, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return Witness{}, err
	}
	defer release()

	data, etag, err := s.store.GetWithETag(ctx, s.path(name))
	if err != nil {
		return Witness{}, errors.Wrapf(err, "wal: load cursor %s", name)
	}
	if etag == "" {
		return Witness{}, s.corrupt(name, "missing ETag for cursor "+name.String())
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return Witness{}, s.corrupt(name, "failed to deserialize cursor "+name.String()+": "+err.Error())
	}
	return Witness{etag: etag, cursor: cursor}, nil
}

// Init creates the cursor. It fails with ErrConflictOnCreate if the cursor
// already exists.
func (s *CursorStore) Init(ctx context.Context, name CursorName, cursor Cursor) (Witness, error) {
	w, err := s.put(ctx, name, cursor, blobstore.PutIfNotExists())
	if errors.Is(err, blobstore.ErrAlreadyExists) {
		s.logger.Debug("cursor already initialized", logpkg.Str("cursor", name.String()))
		return Witness{}, &ConflictError{Name: name.String(), kind: ErrConflictOnCreate, err: err}
	}
	return w, err
}

// Save overwrites the cursor if it has not changed since witness was taken.
// The stored cursor's Writer is always this store's writer. A stale witness
// fails with ErrConflictOnUpdate; reload and retry.
func (s *CursorStore) Save(ctx context.Context, name CursorName, cursor Cursor, witness Witness) (Witness, error) {
	if witness.etag == "" {
		return Witness{}, errors.Newf("wal: save cursor %s: witness carries no ETag", name)
	}
	w, err := s.put(ctx, name, cursor, blobstore.PutIfMatches(witness.etag))
	if errors.Is(err, blobstore.ErrPreconditionFailed) {
		s.logger.Debug("cursor save conflict", logpkg.Str("cursor", name.String()), logpkg.Str("etag", string(witness.etag)))
		return Witness{}, &ConflictError{Name: name.String(), kind: ErrConflictOnUpdate, err: err}
	}
	return w, err
}

func (s *CursorStore) put(ctx context.Context, name CursorName, cursor Cursor, opts blobstore.PutOptions) (Witness, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return Witness{}, err
	}
	defer release()

	cursor.Writer = s.writer
	data, err := json.Marshal(cursor)
	if err != nil {
		return Witness{}, s.corrupt(name, "failed to serialize cursor "+name.String()+": "+err.Error())
	}
	etag, err := s.store.PutBytes(ctx, s.path(name), data, opts)
	if err != nil {
		return Witness{}, errors.Wrapf(err, "wal: put cursor %s", name)
	}
	if etag == "" {
		return Witness{}, s.corrupt(name, "missing ETag for cursor "+name.String())
	}
	return Witness{etag: etag, cursor: cursor}, nil
}

// List returns the names of all cursors under the store's prefix. Blobs whose
// path is not a valid cursor path are skipped.
func (s *CursorStore) List(ctx context.Context) ([]CursorName, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	base := cursorPathPrefix
	if s.prefix != "" {
		base = s.prefix + "/" + base
	}
	paths, err := s.store.List(ctx, base)
	if err != nil {
		return nil, errors.Wrapf(err, "wal: list cursors under %q", s.prefix)
	}
	var names []CursorName
	for _, p := range paths {
		rel := p
		if s.prefix != "" {
			rel = strings.TrimPrefix(p, s.prefix+"/")
		}
		if name, ok := CursorNameFromPath(rel); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
