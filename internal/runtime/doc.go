// Package runtime opens the single-node storage stack: a Pebble database, the
// blob store layered on it, and the cursor store that servers and the CLI
// share.
package runtime
