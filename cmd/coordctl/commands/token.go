package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/rhc-coord/internal/cli/prompt"
	"github.com/marmos91/rhc-coord/pkg/api/auth"
)

var (
	tokenOperator string
	tokenReadOnly bool
	tokenTTL      time.Duration
	tokenSecret   string
	tokenIssuer   string
	tokenForce    bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator bearer token",
	Long: `Mint a bearer token for use with --token or COORDCTL_TOKEN.

There is no login flow: coordd's status API trusts any token signed
with its configured JWT secret, so minting a token requires that same
secret (usually read from the COORD_API_JWT_SECRET environment
variable a node was started with, or its config file).

Examples:
  COORDCTL_JWT_SECRET=$(cat secret) coordctl token --operator alice
  coordctl token --operator alice --read-only --ttl 15m --secret "$COORD_API_JWT_SECRET"`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "Operator identity recorded in the token (required)")
	tokenCmd.Flags().BoolVar(&tokenReadOnly, "read-only", false, "Restrict the token to read-only use")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "JWT signing secret (default: $COORDCTL_JWT_SECRET)")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "rhc-coord", "Token issuer claim; must match the node's configured issuer")
	tokenCmd.Flags().BoolVarP(&tokenForce, "force", "f", false, "Skip the confirmation prompt when minting a read-write token")
	_ = tokenCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := tokenSecret
	if secret == "" {
		secret = os.Getenv("COORDCTL_JWT_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("no signing secret. Pass --secret or set COORDCTL_JWT_SECRET")
	}

	if !tokenReadOnly {
		ok, err := prompt.ConfirmWithForce(
			fmt.Sprintf("Mint a read-write token for %q (TTL %s)?", tokenOperator, tokenTTL), tokenForce)
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			return fmt.Errorf("aborted")
		}
	}

	svc, err := auth.NewService(auth.Config{Secret: secret, Issuer: tokenIssuer, TokenDuration: tokenTTL})
	if err != nil {
		return fmt.Errorf("initialize token service: %w", err)
	}

	signed, expiresAt, err := svc.IssueToken(tokenOperator, tokenReadOnly)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
