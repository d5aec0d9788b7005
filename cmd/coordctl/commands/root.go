// Package commands implements the coordctl command tree.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/cmd/coordctl/cmdutil"
	"github.com/marmos91/rhc-coord/cmd/coordctl/commands/consensus"
	"github.com/marmos91/rhc-coord/cmd/coordctl/commands/leases"
)

// Version, Commit, and Date are set by main from build-time ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "coordctl",
	Short: "Operator CLI for the coordination core",
	Long: `coordctl drives a coordination core node's operator status API:
clock and lease state, consensus group membership, and equivocation
evidence.

Every command needs a server address and a bearer token, set via
--server/--token or the COORDCTL_SERVER/COORDCTL_TOKEN environment
variables.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.Server, "server", os.Getenv("COORDCTL_SERVER"), "Coordination core status API address (e.g. http://127.0.0.1:8600)")
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.Token, "token", "", "Operator bearer token (default: $COORDCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&cmdutil.Flags.Verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(leases.Cmd)
	rootCmd.AddCommand(consensus.Cmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func versionString() string {
	return fmt.Sprintf("coordctl %s (commit: %s, built: %s)", Version, Commit, Date)
}
