package leases

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/cmd/coordctl/cmdutil"
	"github.com/marmos91/rhc-coord/internal/cli/output"
)

var getCmd = &cobra.Command{
	Use:   "get <scope-key>",
	Short: "Show the lease covering a single scope key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	lease, err := client.GetLease(args[0])
	if err != nil {
		return fmt.Errorf("get lease: %w", err)
	}

	format, err := cmdutil.GetOutputFormat()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.Print(os.Stdout, format, lease)
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"ID", lease.ID},
		{"SCOPE", fmt.Sprintf("%s:%s", lease.ScopeKind, lease.ScopeKey)},
		{"HOLDER", lease.Holder},
		{"GRANTED AT (ms)", fmt.Sprintf("%d", lease.GrantedAt)},
		{"EXPIRES AT (ms)", fmt.Sprintf("%d", lease.ExpiresAt)},
		{"RENEWALS", fmt.Sprintf("%d", lease.RenewalCount)},
	})
}
