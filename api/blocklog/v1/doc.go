// Package blocklogv1 defines the blocklog.v1 gRPC API: the message structs,
// the CursorService descriptor with its client and server bindings, and the
// JSON codec the service is carried over.
package blocklogv1
