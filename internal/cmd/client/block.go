package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/rzbill/blocklog/internal/blockstore"
)

// BlockDefaults supplies the configured key kind and block size.
type BlockDefaults func() (kind string, maxBytes int)

// NewBlockCommand constructs the `block` command group.
func NewBlockCommand(defaults BlockDefaults) *cobra.Command {
	blockCmd := &cobra.Command{Use: "block", Short: "Delta buffer and block tools"}
	blockCmd.AddCommand(newBlockPlanCommand(defaults))
	return blockCmd
}

// entryLine is one input record of `block plan`.
type entryLine struct {
	Prefix string `json:"prefix"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	// Delete removes the key instead of setting it.
	Delete bool `json:"delete,omitempty"`
}

// blockSummary is one output line of `block plan`.
type blockSummary struct {
	Block       int      `json:"block"`
	MinKey      string   `json:"min_key"`
	Entries     int      `json:"entries"`
	Size        int      `json:"size"`
	PrefixBytes int      `json:"prefix_bytes"`
	KeyBytes    int      `json:"key_bytes"`
	ValueBytes  int      `json:"value_bytes"`
	Rows        int64    `json:"rows,omitempty"`
	Columns     []string `json:"columns,omitempty"`
}

func newBlockPlanCommand(defaults BlockDefaults) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan [FILE]",
		Short: "Load JSON lines into a delta buffer and show how it splits into blocks",
		Long: "Reads {\"prefix\",\"key\",\"value\"} JSON lines from FILE or stdin into a delta buffer,\n" +
			"then splits it at --max-bytes and prints one summary per block. A block may exceed\n" +
			"--max-bytes by its last entry: the entry that crosses the budget stays in the block.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kindName, maxBytes := defaults()
			if cmd.Flags().Changed("key-kind") {
				kindName, _ = cmd.Flags().GetString("key-kind")
			}
			if cmd.Flags().Changed("max-bytes") {
				maxBytes, _ = cmd.Flags().GetInt("max-bytes")
			}
			parallel, _ := cmd.Flags().GetInt("parallel")
			withArrow, _ := cmd.Flags().GetBool("arrow")

			kind, ok := blockstore.ParseKeyKind(kindName)
			if !ok {
				return fmt.Errorf("invalid --key-kind %q; use string|uint32|float32|bool", kindName)
			}
			if maxBytes <= 0 {
				return fmt.Errorf("--max-bytes must be positive")
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			buf, err := loadDeltaBuffer(in, kind, parallel)
			if err != nil {
				return err
			}
			for i, b := range planBlocks(buf, maxBytes) {
				s, err := summarize(i, b, withArrow)
				if err != nil {
					return err
				}
				if err := printJSON(cmd, s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	planCmd.Flags().String("key-kind", "string", "Key kind: string|uint32|float32|bool")
	planCmd.Flags().Int("max-bytes", 8<<20, "Estimated block size budget")
	planCmd.Flags().Int("parallel", 1, "Number of workers applying entries to the buffer")
	planCmd.Flags().Bool("arrow", false, "Assemble each block as an Arrow record and report its shape")
	return planCmd
}

// loadDeltaBuffer reads JSON lines from r. Lines are applied in input order
// when parallel <= 1; with more workers they are applied concurrently, so
// later writes to the same key may lose to earlier ones.
func loadDeltaBuffer(r io.Reader, kind blockstore.KeyKind, parallel int) (*blockstore.DeltaBuffer, error) {
	var lines []entryLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for n := 1; sc.Scan(); n++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e entryLine
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		lines = append(lines, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	buf := blockstore.NewDeltaBuffer(kind)
	apply := func(e entryLine) error {
		key, err := kind.ParseKey(e.Key)
		if err != nil {
			return err
		}
		if e.Delete {
			buf.Delete(e.Prefix, key)
		} else {
			buf.Add(e.Prefix, key, e.Value)
		}
		return nil
	}
	if parallel <= 1 {
		for _, e := range lines {
			if err := apply(e); err != nil {
				return nil, err
			}
		}
		return buf, nil
	}

	pool, err := ants.NewPool(parallel)
	if err != nil {
		return nil, err
	}
	defer pool.Release()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, e := range lines {
		e := e
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := apply(e); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return buf, nil
}

// planBlocks splits buf at maxBytes until the tail fits. Split keeps the
// entry that crosses the budget, so a block's size without its last entry is
// within maxBytes; a single-entry block may be any size. Blocks are returned
// in key order.
func planBlocks(buf *blockstore.DeltaBuffer, maxBytes int) []*blockstore.DeltaBuffer {
	var blocks []*blockstore.DeltaBuffer
	cur := buf
	for cur.Len() > 1 && cur.Size() > maxBytes {
		_, rest := cur.Split(maxBytes)
		blocks = append(blocks, cur)
		cur = rest
	}
	if cur.Len() > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func summarize(i int, b *blockstore.DeltaBuffer, withArrow bool) (blockSummary, error) {
	s := blockSummary{
		Block:       i,
		Entries:     b.Len(),
		Size:        b.Size(),
		PrefixBytes: b.PrefixSize(),
		KeyBytes:    b.KeySize(),
		ValueBytes:  b.ValueSize(),
	}
	if k, ok := b.MinKey(); ok {
		s.MinKey = k.String()
	}
	if !withArrow {
		return s, nil
	}
	rec, err := blockstore.BuildBlock(b, memory.NewGoAllocator())
	if err != nil {
		return s, err
	}
	defer rec.Release()
	s.Rows = rec.NumRows()
	for _, f := range rec.Schema().Fields() {
		s.Columns = append(s.Columns, f.Name+":"+f.Type.String())
	}
	return s, nil
}
