package client

import (
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/rzbill/blocklog/internal/cmd/client/transports"
)

// GRPCAddrFromEnv returns the server address from BLOCKLOG_GRPC, or "" when
// the CLI should work on a local data dir.
func GRPCAddrFromEnv() string {
	return os.Getenv("BLOCKLOG_GRPC")
}

// DialGRPC connects to a blocklog server with insecure transport for
// local/dev use. The connection is established lazily on the first call.
func DialGRPC(addr string) (transports.CursorsTransport, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return transports.NewGrpcTransport(conn), nil
}
