package consensus

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/cmd/coordctl/cmdutil"
	"github.com/marmos91/rhc-coord/internal/cli/output"
)

var roundCmd = &cobra.Command{
	Use:   "round <number>",
	Short: "Show whether a round has committed, and its payload size",
	Args:  cobra.ExactArgs(1),
	RunE:  runRound,
}

func runRound(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("round must be a non-negative integer: %w", err)
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	round, err := client.GetRound(n)
	if err != nil {
		return fmt.Errorf("get round: %w", err)
	}

	format, err := cmdutil.GetOutputFormat()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.Print(os.Stdout, format, round)
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"ROUND", strconv.FormatUint(round.Round, 10)},
		{"VALUE SIZE (bytes)", strconv.Itoa(round.ValueSize)},
	})
}
