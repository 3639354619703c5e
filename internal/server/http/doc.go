// Package httpserver is the REST gateway for blocklog cursors. Cursor
// versions are exposed as ETag headers and writes are conditional:
// If-None-Match: * creates a cursor and If-Match: <etag> replaces it.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, nil)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
