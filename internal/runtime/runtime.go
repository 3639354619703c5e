package runtime

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/rzbill/blocklog/internal/blobstore"
	"github.com/rzbill/blocklog/internal/blockstore"
	cfgpkg "github.com/rzbill/blocklog/internal/config"
	pebblestore "github.com/rzbill/blocklog/internal/storage/pebble"
	"github.com/rzbill/blocklog/internal/wal"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        logpkg.Logger
	Metrics       pebblestore.MetricsHook
}

// Runtime wires storage, config, and the cursor store for a single-node
// instance.
type Runtime struct {
	db      *pebblestore.DB
	blobs   *blobstore.PebbleStore
	cursors *wal.CursorStore
	config  cfgpkg.Config
	logger  logpkg.Logger
}

// Open validates the config, opens Pebble under DataDir and builds the blob
// and cursor stores on top of it.
func Open(opts Options) (*Runtime, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       opts.Metrics,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	blobs, err := blobstore.NewPebbleStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	cursors := wal.NewCursorStore(wal.CursorStoreOptions{
		Concurrency: opts.Config.CursorConcurrency,
		Logger:      logger,
	}, blobs, opts.Config.CursorPrefix, opts.Config.Writer)

	logger.Info("runtime opened",
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("writer", opts.Config.Writer),
		logpkg.Str("cursor_prefix", opts.Config.CursorPrefix))
	return &Runtime{db: db, blobs: blobs, cursors: cursors, config: opts.Config, logger: logger}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth opens and closes an iterator to prove the store is readable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// CursorStore returns the shared cursor store.
func (r *Runtime) CursorStore() *wal.CursorStore { return r.cursors }

// BlobStore returns the Pebble-backed blob store the cursors live in.
func (r *Runtime) BlobStore() blobstore.Store { return r.blobs }

// NewDeltaBuffer returns an empty buffer for the configured key kind.
func (r *Runtime) NewDeltaBuffer() *blockstore.DeltaBuffer {
	return blockstore.NewDeltaBuffer(r.config.BlockKeyKind())
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
