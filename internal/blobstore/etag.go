package blobstore

import (
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// nowMs returns current time in milliseconds since Unix epoch.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// etagGenerator hands out strictly increasing ETags of the form
// hex([8B ms][8B seq]). Every write gets a fresh tag, even when the
// content is unchanged.
type etagGenerator struct {
	mu     sync.Mutex
	lastMs int64
	seq    uint64
}

// seed makes every later tag sort after last, which must be a tag this
// generator format produced. An empty last is a no-op.
func (g *etagGenerator) seed(last ETag) error {
	if last == "" {
		return nil
	}
	b, err := hex.DecodeString(string(last))
	if err != nil || len(b) != 16 {
		return errors.Newf("blobstore: malformed etag high-water mark %q", last)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := int64(binary.BigEndian.Uint64(b[0:8]))
	if ms > g.lastMs || (ms == g.lastMs && binary.BigEndian.Uint64(b[8:16]) > g.seq) {
		g.lastMs = ms
		g.seq = binary.BigEndian.Uint64(b[8:16])
	}
	return nil
}

func (g *etagGenerator) next() ETag {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := nowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	if ms == g.lastMs {
		g.seq++
	} else {
		g.seq = 0
	}
	g.lastMs = ms

	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(ms))
	binary.BigEndian.PutUint64(b[8:16], g.seq)
	return ETag(hex.EncodeToString(b[:]))
}
