// Package leases implements lease inspection commands for coordctl.
package leases

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for lease inspection.
var Cmd = &cobra.Command{
	Use:   "leases",
	Short: "Inspect scope leases",
	Long: `Inspect the lease table a coordination core node currently holds.

Leases are granted and renewed by the node's own client protocol, not
through this operator surface: these commands are read-only.

Examples:
  coordctl leases list
  coordctl leases get shard-0042`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
}
