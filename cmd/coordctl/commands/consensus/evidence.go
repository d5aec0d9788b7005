package consensus

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/cmd/coordctl/cmdutil"
	"github.com/marmos91/rhc-coord/pkg/apiclient"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "List recorded equivocation accusations",
	RunE:  runEvidence,
}

// AccusationList renders recorded accusations as a table.
type AccusationList []apiclient.Accusation

// Headers implements output.TableRenderer.
func (al AccusationList) Headers() []string {
	return []string{"ROUND", "ACCUSED NODE", "REPORTED BY"}
}

// Rows implements output.TableRenderer.
func (al AccusationList) Rows() [][]string {
	rows := make([][]string, 0, len(al))
	for _, a := range al {
		rows = append(rows, []string{strconv.FormatUint(a.Round, 10), a.NodeID, a.Reporter})
	}
	return rows
}

func runEvidence(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	evidence, err := client.ListEvidence()
	if err != nil {
		return fmt.Errorf("list evidence: %w", err)
	}

	return cmdutil.PrintOutput(AccusationList(evidence), len(evidence) == 0, "No equivocation evidence recorded.")
}
