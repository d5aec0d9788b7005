package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/cmd/coordctl/cmdutil"
	"github.com/marmos91/rhc-coord/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a node's clock, lease, and consensus status",
	Long: `Fetch a full status snapshot from a coordination core node.

Examples:
  coordctl status
  coordctl status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	status, err := client.GetStatus()
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}

	format, err := cmdutil.GetOutputFormat()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.Print(os.Stdout, format, status)
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"CLOCK", fmt.Sprintf("%d.%d", status.Clock.Physical, status.Clock.Logical)},
		{"ACTIVE LEASES", strconv.Itoa(status.Leases)},
		{"SELF", status.Consensus.Self},
		{"MEMBERS", fmt.Sprintf("%v", status.Consensus.Members)},
		{"QUORUM", strconv.Itoa(status.Consensus.Quorum)},
		{"CURRENT ROUND", strconv.FormatUint(status.Consensus.CurrentRound, 10)},
		{"CURRENT VIEW", strconv.FormatUint(status.Consensus.CurrentView, 10)},
		{"EQUIVOCATION EVIDENCE", strconv.Itoa(status.Consensus.Equivocation)},
	})
}
