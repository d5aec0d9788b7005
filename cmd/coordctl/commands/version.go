package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print coordctl's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(versionString())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
