// Package client provides the `blocklog` command-line client commands.
//
// Cursor commands run through a transport: over gRPC when a server address
// is given (--addr or BLOCKLOG_GRPC), otherwise in-process against the local
// data dir. Output is one JSON document per result.
//
// Usage
//
//	blocklog cursor init reader --offset 0
//	blocklog cursor get reader
//	blocklog cursor save reader --offset 42 --etag 0000018f...
//	blocklog cursor advance reader --by 10 --create
//	blocklog cursor list
//
//	# Split a delta buffer loaded from JSON lines into 1 MiB blocks
//	blocklog block plan --max-bytes 1048576 --arrow entries.jsonl
//
// Notes
//
//   - save and advance are compare-and-swap: a save whose ETag is stale fails
//     with a conflict; advance reloads and retries up to --max-attempts.
//   - advance --to never moves a cursor backwards.
package client
