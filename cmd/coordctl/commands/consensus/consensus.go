// Package consensus implements consensus-group inspection commands for
// coordctl.
package consensus

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for consensus inspection.
var Cmd = &cobra.Command{
	Use:   "consensus",
	Short: "Inspect the consensus group",
	Long: `Inspect a coordination core node's view of its consensus group:
recorded equivocation evidence and committed round payload sizes.

Examples:
  coordctl consensus evidence
  coordctl consensus round 42`,
}

func init() {
	Cmd.AddCommand(evidenceCmd)
	Cmd.AddCommand(roundCmd)
}
