// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	blocklogv1 "github.com/rzbill/blocklog/api/blocklog/v1"
	"github.com/rzbill/blocklog/internal/blobstore"
	grpcserver "github.com/rzbill/blocklog/internal/server/grpc"
	"github.com/rzbill/blocklog/internal/wal"
)

// GrpcTransport implements CursorsTransport over gRPC.
type GrpcTransport struct {
	conn *grpc.ClientConn
	cli  blocklogv1.CursorServiceClient
}

// NewGrpcTransport wraps an established connection; Close closes it.
func NewGrpcTransport(conn *grpc.ClientConn) *GrpcTransport {
	return &GrpcTransport{conn: conn, cli: blocklogv1.NewCursorServiceClient(conn)}
}

func record(r *blocklogv1.CursorResponse) CursorRecord {
	return CursorRecord{Name: r.Name, Cursor: grpcserver.FromWire(r.Cursor), ETag: r.ETag}
}

// fromStatus marks gRPC errors with the matching cursor store sentinel.
func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.AlreadyExists:
		return errors.Mark(err, wal.ErrConflictOnCreate)
	case codes.Aborted:
		return errors.Mark(err, wal.ErrConflictOnUpdate)
	case codes.NotFound:
		return errors.Mark(err, blobstore.ErrNotFound)
	case codes.DataLoss:
		return errors.Mark(err, wal.ErrCorruptCursor)
	}
	return err
}

func (t *GrpcTransport) Load(ctx context.Context, name string) (CursorRecord, error) {
	r, err := t.cli.Load(ctx, &blocklogv1.LoadCursorRequest{Name: name})
	if err != nil {
		return CursorRecord{}, fromStatus(err)
	}
	return record(r), nil
}

func (t *GrpcTransport) Init(ctx context.Context, name string, cursor wal.Cursor) (CursorRecord, error) {
	r, err := t.cli.Init(ctx, &blocklogv1.InitCursorRequest{Name: name, Cursor: grpcserver.ToWire(cursor)})
	if err != nil {
		return CursorRecord{}, fromStatus(err)
	}
	return record(r), nil
}

func (t *GrpcTransport) Save(ctx context.Context, name string, cursor wal.Cursor, etag string) (CursorRecord, error) {
	r, err := t.cli.Save(ctx, &blocklogv1.SaveCursorRequest{Name: name, Cursor: grpcserver.ToWire(cursor), ETag: etag})
	if err != nil {
		return CursorRecord{}, fromStatus(err)
	}
	return record(r), nil
}

func (t *GrpcTransport) List(ctx context.Context) ([]string, error) {
	r, err := t.cli.List(ctx, &blocklogv1.ListCursorsRequest{})
	if err != nil {
		return nil, fromStatus(err)
	}
	return r.Names, nil
}

func (t *GrpcTransport) Close() error { return t.conn.Close() }
