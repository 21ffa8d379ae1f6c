package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/utils"
)

// TokenStatusOutput represents token status for JSON output.
type TokenStatusOutput struct {
	Profile     string `json:"profile"`
	ID          string `json:"id"`
	Stored      bool   `json:"stored"`
	Token       string `json:"token,omitempty"`
	TokenMasked string `json:"token_masked,omitempty"`
}

// newTokenCmd creates the token command group.
func (cli *CLI) newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage HTTPS access tokens",
		Long: `Manage the access tokens of https profiles.

Tokens are kept in the OS keyring and written to git's credential store
when the profile is switched to.`,
	}

	cmd.AddCommand(
		cli.newTokenSetCmd(),
		cli.newTokenClearCmd(),
		cli.newTokenStatusCmd(),
	)

	return cmd
}

// newTokenSetCmd creates the token set command.
func (cli *CLI) newTokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <profile>",
		Short: "Store the access token of an https profile",
		Long: `Store the access token of an https profile, replacing any stored one.

The token is read without echo from the terminal, or as one line from
standard input when it is not a terminal:

  echo "$GITHUB_TOKEN" | gitflip token set oss`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.httpsProfile(args[0])
			if err != nil {
				return err
			}
			token, err := cli.readSecret(cmd, "Access token: ")
			if err != nil {
				return err
			}
			if err := cli.Tokens.Store(p.ID, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored for %q (%s)\n", p.Name, utils.Mask(token))
			return nil
		},
	}
}

// newTokenClearCmd creates the token clear command.
func (cli *CLI) newTokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "clear <profile>",
		Aliases:           []string{"rm", "delete"},
		Short:             "Delete the stored access token of a profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.Service.Lookup(args[0])
			if err != nil {
				return err
			}
			if !cli.Tokens.Has(p.ID) {
				fmt.Fprintf(cmd.OutOrStdout(), "No token stored for %q\n", p.Name)
				return nil
			}
			if err := cli.Tokens.Delete(p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token deleted for %q\n", p.Name)
			return nil
		},
	}
}

// newTokenStatusCmd creates the token status command.
func (cli *CLI) newTokenStatusCmd() *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "status [profile]",
		Short: "Show whether a profile has a stored token",
		Long: `Show whether a profile has a stored token. Without an argument the
active profile is used. The token is masked unless --show-token is given.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}

			var p profile.Profile
			if len(args) > 0 {
				if p, err = cli.Service.Lookup(args[0]); err != nil {
					return err
				}
			} else {
				var ok bool
				if p, ok = cli.Service.ActiveProfile(); !ok {
					return errors.New("no active profile; pass a profile name")
				}
			}

			token, ok, err := cli.Tokens.Get(p.ID)
			if err != nil {
				return err
			}
			st := TokenStatusOutput{Profile: p.Name, ID: p.ID, Stored: ok}
			if ok {
				st.TokenMasked = utils.Mask(token)
				if showToken {
					st.Token = token
				}
			}

			return output.Write(st, func() {
				if !st.Stored {
					fmt.Fprintf(output.Writer(), "No token stored for %q\n", st.Profile)
					return
				}
				shown := st.TokenMasked
				if showToken {
					shown = st.Token
				}
				fmt.Fprintf(output.Writer(), "Token for %q: %s\n", st.Profile, shown)
			})
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print the full token")
	return cmd
}

// httpsProfile looks up ref and checks that it authenticates over HTTPS.
func (cli *CLI) httpsProfile(ref string) (profile.Profile, error) {
	p, err := cli.Service.Lookup(ref)
	if err != nil {
		return profile.Profile{}, err
	}
	if m := profile.ResolveAuthMethod(p); m != profile.AuthHTTPS {
		return profile.Profile{}, fmt.Errorf("profile %q uses %s authentication; tokens only apply to https profiles", p.Name, m)
	}
	return p, nil
}

// readSecret reads a secret without echo from a terminal, or one line from
// stdin otherwise.
func (cli *CLI) readSecret(cmd *cobra.Command, prompt string) (string, error) {
	var secret string
	if f, ok := cli.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		secret = string(b)
	} else {
		line, err := bufio.NewReader(cli.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		secret = line
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("token cannot be empty")
	}
	if !utils.IsSafeConfigValue(secret) {
		return "", errors.New("token must be a single line")
	}
	return secret, nil
}

// expandPath expands a leading "~" in user supplied paths.
func expandPath(path string) string {
	home, _ := os.UserHomeDir()
	return utils.ExpandHome(strings.TrimSpace(path), home)
}
