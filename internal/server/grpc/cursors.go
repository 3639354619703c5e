package grpcserver

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	blocklogv1 "github.com/rzbill/blocklog/api/blocklog/v1"
	"github.com/rzbill/blocklog/internal/blobstore"
	"github.com/rzbill/blocklog/internal/wal"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

type cursorsSvc struct {
	store  *wal.CursorStore
	logger logpkg.Logger
}

func cursorName(s string) (wal.CursorName, error) {
	name, ok := wal.NewCursorName(s)
	if !ok {
		return wal.CursorName{}, status.Errorf(codes.InvalidArgument, "invalid cursor name %q", s)
	}
	return name, nil
}

// ToWire converts a stored cursor into its API form.
func ToWire(c wal.Cursor) blocklogv1.Cursor {
	return blocklogv1.Cursor{Offset: c.Position.Offset, EpochMicros: c.EpochMicros, Writer: c.Writer}
}

// FromWire is the inverse of ToWire.
func FromWire(c blocklogv1.Cursor) wal.Cursor {
	return wal.Cursor{Position: wal.LogPositionFromOffset(c.Offset), EpochMicros: c.EpochMicros, Writer: c.Writer}
}

func response(name wal.CursorName, w wal.Witness) *blocklogv1.CursorResponse {
	return &blocklogv1.CursorResponse{Name: name.String(), Cursor: ToWire(w.Cursor()), ETag: string(w.ETag())}
}

func (s *cursorsSvc) Load(ctx context.Context, req *blocklogv1.LoadCursorRequest) (*blocklogv1.CursorResponse, error) {
	name, err := cursorName(req.Name)
	if err != nil {
		return nil, err
	}
	w, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, s.toStatus("load", err)
	}
	return response(name, w), nil
}

func (s *cursorsSvc) Init(ctx context.Context, req *blocklogv1.InitCursorRequest) (*blocklogv1.CursorResponse, error) {
	name, err := cursorName(req.Name)
	if err != nil {
		return nil, err
	}
	w, err := s.store.Init(ctx, name, FromWire(req.Cursor))
	if err != nil {
		return nil, s.toStatus("init", err)
	}
	return response(name, w), nil
}

func (s *cursorsSvc) Save(ctx context.Context, req *blocklogv1.SaveCursorRequest) (*blocklogv1.CursorResponse, error) {
	name, err := cursorName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.ETag == "" {
		return nil, status.Error(codes.InvalidArgument, "etag is required")
	}
	cursor := FromWire(req.Cursor)
	w, err := s.store.Save(ctx, name, cursor, wal.WitnessFromETag(blobstore.ETag(req.ETag), cursor))
	if err != nil {
		return nil, s.toStatus("save", err)
	}
	return response(name, w), nil
}

func (s *cursorsSvc) List(ctx context.Context, _ *blocklogv1.ListCursorsRequest) (*blocklogv1.ListCursorsResponse, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, s.toStatus("list", err)
	}
	out := &blocklogv1.ListCursorsResponse{Names: make([]string, 0, len(names))}
	for _, n := range names {
		out.Names = append(out.Names, n.String())
	}
	return out, nil
}

// toStatus maps cursor store errors onto gRPC codes.
func (s *cursorsSvc) toStatus(op string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, wal.ErrConflictOnCreate):
		code = codes.AlreadyExists
	case errors.Is(err, wal.ErrConflictOnUpdate):
		code = codes.Aborted
	case errors.Is(err, wal.ErrCorruptCursor):
		code = codes.DataLoss
	case errors.Is(err, blobstore.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		code = codes.Internal
	}
	if code == codes.Internal || code == codes.DataLoss {
		s.logger.Error("cursor request failed", logpkg.Str("op", op), logpkg.Err(err))
	}
	return status.Error(code, err.Error())
}
