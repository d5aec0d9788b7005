// Package cmdutil provides shared utilities for coordctl commands.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/marmos91/rhc-coord/internal/cli/output"
	"github.com/marmos91/rhc-coord/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values shared by every coordctl command.
type GlobalFlags struct {
	Server  string
	Token   string
	Output  string
	Verbose bool
}

// GetClient returns an API client for the node at --server, authenticated
// with --token (falling back to COORDCTL_TOKEN). There is no credential
// store or login flow: operator tokens are minted by "coordctl token" or
// an out-of-band ceremony and handed to callers directly.
func GetClient() (*apiclient.Client, error) {
	if Flags.Server == "" {
		return nil, fmt.Errorf("no server address. Pass --server or set COORDCTL_SERVER")
	}
	token := Flags.Token
	if token == "" {
		token = os.Getenv("COORDCTL_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("no bearer token. Pass --token or set COORDCTL_TOKEN")
	}
	return apiclient.New(Flags.Server).WithToken(token), nil
}

// GetOutputFormat parses the --output flag into an output.Format.
func GetOutputFormat() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the format selected by --output. For table
// format, emptyMsg is shown when isEmpty is true instead of an empty table.
func PrintOutput(data any, isEmpty bool, emptyMsg string) error {
	format, err := GetOutputFormat()
	if err != nil {
		return err
	}
	if isEmpty && format == output.FormatTable {
		fmt.Println(emptyMsg)
		return nil
	}
	return output.Print(os.Stdout, format, data)
}
