package cli

import (
	"github.com/spf13/cobra"

	"github.com/xabinapal/gitflip/internal/credential"
)

// newCredentialCmd creates the hidden git credential helper command.
func (cli *CLI) newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "credential <get|store|erase>",
		Short:  "git credential helper serving the active profile's token",
		Hidden: true,
		Long: `Implements the git credential helper protocol for the active https
profile. Enable it with:

  git config --global credential.helper '!gitflip credential'

Requests for other hosts, or when the active profile is not https, produce
no answer so git falls through to the next helper.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"get", "store", "erase"},
		RunE: func(cmd *cobra.Command, args []string) error {
			helper := credential.NewHelper(cli.Store, cli.Tokens, cli.Config.Credential.Host, cli.log)
			ctx := cmd.Context()

			switch args[0] {
			case "get":
				return helper.Get(ctx, cli.stdin, cmd.OutOrStdout())
			case "store":
				return helper.Store(ctx, cli.stdin)
			case "erase":
				return helper.Erase(ctx, cli.stdin)
			}
			// git ignores operations a helper does not know
			return nil
		},
	}
	return cmd
}
