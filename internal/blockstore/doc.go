// Package blockstore stages key/value entries for immutable Arrow blocks.
//
// A DeltaBuffer holds sorted (prefix, key) -> value entries together with a
// SizeTracker whose totals always equal the bytes held. Size estimates the
// encoded block size, including Arrow's 64-byte buffer padding and offset
// buffers, and Split cuts an oversized buffer in two at a key boundary:
//
//	d := blockstore.NewDeltaBuffer(blockstore.KeyKindString)
//	d.Add("doc", blockstore.StringKey("a"), "hello")
//	if d.Size() > maxBlockBytes {
//	    boundary, rest := d.Split(maxBlockBytes / 2)
//	    _, _ = boundary, rest
//	}
//	rec, err := blockstore.BuildBlock(d, memory.DefaultAllocator)
//
// Deciding when to split or flush is left to the caller.
package blockstore
