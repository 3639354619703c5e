package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command with the cursor and block command
// groups, for embedding the client in another binary.
func NewRoot(open TransportFunc, defaults BlockDefaults) *cobra.Command {
	root := &cobra.Command{
		Use:   "blocklog",
		Short: "blocklog client commands",
	}
	root.AddCommand(NewCursorCommand(open))
	root.AddCommand(NewBlockCommand(defaults))
	return root
}
