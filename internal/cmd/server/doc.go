// Package serverrun exposes the Run entrypoint behind `blocklog server
// start`: it opens the runtime and serves the gRPC and HTTP cursor APIs until
// the context is cancelled.
//
// Example:
//
//	opts := serverrun.Options{DataDir: "./data", GRPCAddr: ":50051", HTTPAddr: ":8080", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, opts)
package serverrun
