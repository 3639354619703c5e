package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	transports "github.com/rzbill/blocklog/internal/cmd/client/transports"
	"github.com/rzbill/blocklog/internal/wal"
)

// TransportFunc opens the transport a command runs against. The command is
// passed so implementations can read persistent flags.
type TransportFunc func(cmd *cobra.Command) (transports.CursorsTransport, error)

// NewCursorCommand constructs the `cursor` command group and subcommands.
func NewCursorCommand(open TransportFunc) *cobra.Command {
	cursorCmd := &cobra.Command{Use: "cursor", Short: "Cursor operations"}
	cursorCmd.AddCommand(
		newCursorGetCommand(open),
		newCursorInitCommand(open),
		newCursorSaveCommand(open),
		newCursorListCommand(open),
		newCursorAdvanceCommand(open),
	)
	return cursorCmd
}

// withTransport opens a transport for the duration of fn.
func withTransport(cmd *cobra.Command, open TransportFunc, fn func(transports.CursorsTransport) error) error {
	t, err := open(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()
	return fn(t)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(v)
}

func newCursorGetCommand(open TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Print a cursor and its ETag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransport(cmd, open, func(t transports.CursorsTransport) error {
				rec, err := t.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, rec)
			})
		},
	}
}

func newCursorInitCommand(open TransportFunc) *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init NAME",
		Short: "Create a cursor; fails if it already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, _ := cmd.Flags().GetUint64("offset")
			epoch, _ := cmd.Flags().GetUint64("epoch-us")
			return withTransport(cmd, open, func(t transports.CursorsTransport) error {
				rec, err := t.Init(cmd.Context(), args[0], wal.Cursor{Position: wal.LogPositionFromOffset(offset), EpochMicros: epoch})
				if err != nil {
					return err
				}
				return printJSON(cmd, rec)
			})
		},
	}
	initCmd.Flags().Uint64("offset", 0, "Initial log offset")
	initCmd.Flags().Uint64("epoch-us", 0, "Epoch in microseconds")
	return initCmd
}

func newCursorSaveCommand(open TransportFunc) *cobra.Command {
	saveCmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Overwrite a cursor if it still has the given ETag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, _ := cmd.Flags().GetUint64("offset")
			epoch, _ := cmd.Flags().GetUint64("epoch-us")
			etag, _ := cmd.Flags().GetString("etag")
			if etag == "" {
				return fmt.Errorf("--etag is required; run `cursor get` first")
			}
			return withTransport(cmd, open, func(t transports.CursorsTransport) error {
				rec, err := t.Save(cmd.Context(), args[0], wal.Cursor{Position: wal.LogPositionFromOffset(offset), EpochMicros: epoch}, etag)
				if err != nil {
					return err
				}
				return printJSON(cmd, rec)
			})
		},
	}
	saveCmd.Flags().Uint64("offset", 0, "New log offset")
	saveCmd.Flags().Uint64("epoch-us", 0, "Epoch in microseconds")
	saveCmd.Flags().String("etag", "", "ETag returned by the last get/init/save")
	return saveCmd
}

func newCursorListCommand(open TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cursor names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTransport(cmd, open, func(t transports.CursorsTransport) error {
				names, err := t.List(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string][]string{"cursors": names})
			})
		},
	}
}

func newCursorAdvanceCommand(open TransportFunc) *cobra.Command {
	advanceCmd := &cobra.Command{
		Use:   "advance NAME",
		Short: "Move a cursor forward with compare-and-swap retries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetUint64("to")
			by, _ := cmd.Flags().GetUint64("by")
			create, _ := cmd.Flags().GetBool("create")
			maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
			if (to == 0) == (by == 0) {
				return fmt.Errorf("exactly one of --to or --by is required")
			}
			next := func(cur wal.Cursor) (wal.Cursor, bool) {
				target := cur.Position.Add(by)
				if by == 0 {
					target = wal.LogPositionFromOffset(to)
				}
				if !cur.Position.Before(target) {
					return cur, false
				}
				return wal.Cursor{Position: target, EpochMicros: uint64(time.Now().UnixMicro())}, true
			}
			return withTransport(cmd, open, func(t transports.CursorsTransport) error {
				if create {
					_, err := t.Init(cmd.Context(), args[0], wal.Cursor{})
					if err != nil && !errors.Is(err, wal.ErrConflictOnCreate) {
						return err
					}
				}
				rec, err := advance(cmd.Context(), t, args[0], next, maxAttempts)
				if err != nil {
					return err
				}
				return printJSON(cmd, rec)
			})
		},
	}
	advanceCmd.Flags().Uint64("to", 0, "Absolute target offset; never moves the cursor back")
	advanceCmd.Flags().Uint64("by", 0, "Relative number of records to advance")
	advanceCmd.Flags().Bool("create", false, "Create the cursor at offset 0 if it does not exist")
	advanceCmd.Flags().Int("max-attempts", wal.DefaultMaxAttempts, "Give up after this many conflicting saves")
	return advanceCmd
}

// advance is the load/compute/save loop of wal.CursorStore.Advance, run
// through a transport so it also works against a remote server.
func advance(ctx context.Context, t transports.CursorsTransport, name string, next wal.UpdateFunc, maxAttempts int) (transports.CursorRecord, error) {
	if maxAttempts <= 0 {
		maxAttempts = wal.DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rec, err := t.Load(ctx, name)
		if err != nil {
			return transports.CursorRecord{}, err
		}
		cur, ok := next(rec.Cursor)
		if !ok {
			return rec, nil
		}
		saved, err := t.Save(ctx, name, cur, rec.ETag)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, wal.ErrConflictOnUpdate) {
			return transports.CursorRecord{}, err
		}
	}
	return transports.CursorRecord{}, errors.Wrapf(wal.ErrTooManyConflicts, "advance cursor %s after %d attempts", name, maxAttempts)
}
