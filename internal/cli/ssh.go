package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newSSHCmd creates the ssh command group.
func (cli *CLI) newSSHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Inspect ssh keys and host aliases",
		Long: `Inspect the ssh directory: private keys that can be assigned to profiles,
the host aliases declared in the ssh config, and the blocks gitflip owns.`,
	}

	cmd.AddCommand(
		cli.newSSHKeysCmd(),
		cli.newSSHHostsCmd(),
		cli.newSSHEntriesCmd(),
	)

	return cmd
}

// newSSHKeysCmd creates the ssh keys command.
func (cli *CLI) newSSHKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List private keys in the ssh directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			keys, err := cli.SSH.DiscoverKeys()
			if err != nil {
				return err
			}
			return output.Write(keys, func() {
				if len(keys) == 0 {
					fmt.Fprintf(output.Writer(), "No private keys found in %s\n", cli.SSH.Dir())
					return
				}
				w := tabwriter.NewWriter(output.Writer(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tTYPE\tFINGERPRINT\tPATH")
				for _, k := range keys {
					keyType := orDash(k.Type)
					if k.Encrypted {
						keyType += " (encrypted)"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k.Name, keyType, orDash(k.Fingerprint), k.Path)
				}
				// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
				_ = w.Flush()
			})
		},
	}
}

// newSSHHostsCmd creates the ssh hosts command.
func (cli *CLI) newSSHHostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List host aliases declared in the ssh config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			hosts, err := cli.SSH.ListAllHosts()
			if err != nil {
				return err
			}
			return output.Write(hosts, func() {
				if len(hosts) == 0 {
					fmt.Fprintf(output.Writer(), "No host aliases in %s\n", cli.SSH.ConfigPath())
					return
				}
				w := tabwriter.NewWriter(output.Writer(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "HOST\tIDENTITY FILE\tGITFLIP")
				for _, h := range hosts {
					fmt.Fprintf(w, "%s\t%s\t%s\n", h.Alias, orDash(h.IdentityFile), yesNo(h.Owned, "yes", ""))
				}
				// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
				_ = w.Flush()
			})
		},
	}
}

// newSSHEntriesCmd creates the ssh entries command.
func (cli *CLI) newSSHEntriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "List ssh config blocks managed by gitflip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			entries, err := cli.SSH.ListOwnedEntries()
			if err != nil {
				return err
			}
			return output.Write(entries, func() {
				if len(entries) == 0 {
					fmt.Fprintln(output.Writer(), "No managed ssh host blocks.")
					return
				}
				w := tabwriter.NewWriter(output.Writer(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "PROFILE\tHOST\tHOSTNAME\tIDENTITY FILE")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Profile, e.Host, orDash(e.HostName), e.IdentityFile)
				}
				// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
				_ = w.Flush()
			})
		},
	}
}
