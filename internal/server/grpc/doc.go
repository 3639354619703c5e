// Package grpcserver hosts the blocklog gRPC server. It registers the
// JSON-coded blocklog.v1.CursorService over the runtime's cursor store and
// the standard grpc.health.v1 service.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := grpcserver.New(rt)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
