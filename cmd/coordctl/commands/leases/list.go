package leases

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/cmd/coordctl/cmdutil"
	"github.com/marmos91/rhc-coord/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every lease the node currently knows about",
	RunE:  runList,
}

// LeaseList renders a slice of leases as a table.
type LeaseList []apiclient.Lease

// Headers implements output.TableRenderer.
func (ll LeaseList) Headers() []string {
	return []string{"SCOPE", "HOLDER", "EXPIRES AT (ms)", "RENEWALS"}
}

// Rows implements output.TableRenderer.
func (ll LeaseList) Rows() [][]string {
	rows := make([][]string, 0, len(ll))
	for _, l := range ll {
		rows = append(rows, []string{
			fmt.Sprintf("%s:%s", l.ScopeKind, l.ScopeKey),
			l.Holder,
			fmt.Sprintf("%d", l.ExpiresAt),
			fmt.Sprintf("%d", l.RenewalCount),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	list, err := client.ListLeases()
	if err != nil {
		return fmt.Errorf("list leases: %w", err)
	}

	return cmdutil.PrintOutput(LeaseList(list), len(list) == 0, "No leases found.")
}
