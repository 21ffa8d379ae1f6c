package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xabinapal/gitflip/internal/config"
	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/gitident"
	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/switcher"
	"github.com/xabinapal/gitflip/internal/utils"
)

// ProfileListOutput represents profile list output for JSON.
type ProfileListOutput struct {
	Active   string         `json:"active,omitempty"`
	Profiles []profile.Info `json:"profiles"`
}

// profileFlags holds the flags shared by profile add and profile edit.
type profileFlags struct {
	user      string
	email     string
	auth      string
	sshKey    string
	sshHost   string
	avatar    string
	withToken bool
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "Git user.name")
	cmd.Flags().StringVar(&f.email, "email", "", "Git user.email")
	cmd.Flags().StringVar(&f.auth, "auth", "", "Authentication method (ssh, https, none)")
	cmd.Flags().StringVar(&f.sshKey, "ssh-key", "", "Path to the ssh private key")
	cmd.Flags().StringVar(&f.sshHost, "ssh-host", "", "ssh host alias, e.g. github-work")
	cmd.Flags().StringVar(&f.avatar, "avatar", "", "Avatar image URL")
	cmd.Flags().BoolVar(&f.withToken, "with-token", false, "Prompt for an HTTPS access token")
}

// parseAuthMethod parses an --auth value. Empty means "infer".
func parseAuthMethod(s string) (profile.AuthMethod, error) {
	m := profile.AuthMethod(strings.ToLower(strings.TrimSpace(s)))
	if m == "" || m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("invalid auth method %q: must be 'ssh', 'https' or 'none'", s)
}

// parseScope parses a --scope value.
func parseScope(s string) (gitexec.Scope, error) {
	scope := gitexec.Scope(strings.ToLower(strings.TrimSpace(s)))
	if !scope.Valid() {
		return "", fmt.Errorf("invalid scope %q: must be 'local' or 'global'", s)
	}
	return scope, nil
}

// newProfileCmd creates the profile command group.
func (cli *CLI) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage git identity profiles",
		Long: `Manage named git identity profiles.

A profile is referenced by its id, its name (case-insensitive) or a unique
id prefix.

Examples:
  # List all profiles
  gitflip profile list

  # Add an ssh profile with its own host alias
  gitflip profile add work --user "Alice Doe" --email alice@corp.example \
    --ssh-key ~/.ssh/id_work --ssh-host github-work

  # Add an HTTPS profile and enter its token
  gitflip profile add oss --user alice --email alice@example.org --auth https --with-token

  # Use a profile in the current repository
  gitflip profile use work`,
	}

	cmd.AddCommand(
		cli.newProfileListCmd(),
		cli.newProfileAddCmd(),
		cli.newProfileEditCmd(),
		cli.newProfileRemoveCmd(),
		cli.newProfileShowCmd(),
		cli.newProfileDuplicateCmd(),
		cli.newProfileUseCmd("use"),
	)

	return cmd
}

// newProfileListCmd creates the profile list command.
func (cli *CLI) newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			return cli.runProfileList(output)
		},
	}
}

// runProfileList displays all profiles.
func (cli *CLI) runProfileList(output *OutputWriter) error {
	infos := cli.Service.ListProfiles()
	activeID, _ := cli.Store.ActiveID()

	list := ProfileListOutput{Active: activeID, Profiles: infos}
	if len(infos) == 0 {
		return output.Write(list, func() {
			fmt.Fprintln(output.Writer(), "No profiles configured.")
			fmt.Fprintln(output.Writer())
			fmt.Fprintln(output.Writer(), "Add a profile with: gitflip profile add <name> --user=<name> --email=<email>")
		})
	}

	return output.Write(list, func() {
		w := tabwriter.NewWriter(output.Writer(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tIDENTITY\tAUTH\tID")
		for _, info := range infos {
			marker := "  "
			if info.Active {
				marker = "* "
			}
			auth := string(info.AuthMethod)
			if info.SSHHost != "" {
				auth += " (" + info.SSHHost + ")"
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", marker, info.Name,
				utils.FormatIdentity(info.GitUserName, info.GitEmail), auth, shortID(info.ID))
		}
		// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
		_ = w.Flush()
	})
}

// shortID abbreviates a uuid for tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// newProfileAddCmd creates the profile add command.
func (cli *CLI) newProfileAddCmd() *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new profile",
		Long: `Add a new git identity profile.

The auth method is inferred when --auth is not given: an ssh key or host
alias means ssh, --with-token means https, anything else means none.
For ssh profiles a host block is appended to the ssh config unless the
alias is already declared there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}

			method, err := parseAuthMethod(flags.auth)
			if err != nil {
				return err
			}
			data := profile.Profile{
				Name:        args[0],
				GitUserName: flags.user,
				GitEmail:    flags.email,
				AuthMethod:  method,
				SSHKeyPath:  expandPath(flags.sshKey),
				SSHHost:     flags.sshHost,
				UseToken:    flags.withToken,
				AvatarURL:   flags.avatar,
			}
			if err := profile.Validate(profile.Normalize(data)); err != nil {
				return err
			}

			token := ""
			if flags.withToken && profile.ResolveAuthMethod(data) == profile.AuthHTTPS {
				if token, err = cli.readSecret(cmd, "Access token: "); err != nil {
					return err
				}
			}

			p, err := cli.Service.AddProfile(data, token)
			if err != nil {
				return err
			}
			return output.Write(p, func() {
				fmt.Fprintf(output.Writer(), "Profile %q added (%s, id %s)\n", p.Name, p.AuthMethod, p.ID)
				if p.AuthMethod == profile.AuthSSH && p.SSHHost != "" {
					fmt.Fprintf(output.Writer(), "Clone with: git clone git@%s:<owner>/<repo>.git\n", p.SSHHost)
				}
			})
		},
	}

	flags.register(cmd)
	return cmd
}

// newProfileEditCmd creates the profile edit command.
func (cli *CLI) newProfileEditCmd() *cobra.Command {
	var (
		flags profileFlags
		name  string
	)

	cmd := &cobra.Command{
		Use:   "edit <profile>",
		Short: "Change fields of a profile",
		Long: `Change fields of an existing profile. Only the flags given are changed;
an empty value clears the field.

Changing the ssh alias or key replaces the profile's ssh host block.
Switching away from https deletes the stored token.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			prev, err := cli.Service.Lookup(args[0])
			if err != nil {
				return err
			}

			var patch profile.Patch
			fl := cmd.Flags()
			if fl.Changed("name") {
				patch.Name = &name
			}
			if fl.Changed("user") {
				patch.GitUserName = &flags.user
			}
			if fl.Changed("email") {
				patch.GitEmail = &flags.email
			}
			if fl.Changed("auth") {
				method, err := parseAuthMethod(flags.auth)
				if err != nil {
					return err
				}
				patch.AuthMethod = &method
			}
			if fl.Changed("ssh-key") {
				patch.SSHKeyPath = profile.Ref(expandPath(flags.sshKey))
			}
			if fl.Changed("ssh-host") {
				patch.SSHHost = &flags.sshHost
			}
			if fl.Changed("avatar") {
				patch.AvatarURL = &flags.avatar
			}
			if flags.withToken {
				patch.UseToken = profile.Ref(true)
			}
			if patch.Empty() {
				return errors.New("nothing to change: pass at least one field flag")
			}

			var token *string
			if flags.withToken && profile.ResolveAuthMethod(patch.Apply(prev)) == profile.AuthHTTPS {
				secret, err := cli.readSecret(cmd, "Access token: ")
				if err != nil {
					return err
				}
				token = &secret
			}

			p, err := cli.Service.UpdateProfile(prev.ID, patch, token)
			if err != nil {
				return err
			}
			return output.Write(p, func() {
				fmt.Fprintf(output.Writer(), "Profile %q updated\n", p.Name)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	return cmd
}

// newProfileRemoveCmd creates the profile remove command.
func (cli *CLI) newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <profile>",
		Aliases:           []string{"rm", "delete"},
		Short:             "Remove a profile",
		Long:              `Remove a profile, its ssh host block, its cached HTTPS credentials and its stored token.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			p, err := cli.Service.Lookup(args[0])
			if err != nil {
				return err
			}
			if err := cli.Service.RemoveProfile(cmd.Context(), p.ID); err != nil {
				return err
			}
			return output.Write(map[string]string{"removed": p.ID}, func() {
				fmt.Fprintf(output.Writer(), "Profile %q removed\n", p.Name)
			})
		},
	}
}

// newProfileShowCmd creates the profile show command.
func (cli *CLI) newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "show [profile]",
		Short:             "Show details of a profile",
		Long:              `Show details of a profile. Without an argument the active profile is shown.`,
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

			st, err := cli.Service.Status(p.ID)
			if err != nil {
				return err
			}
			return output.Write(st, func() {
				w := tabwriter.NewWriter(output.Writer(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Name:\t%s\n", st.Name)
				fmt.Fprintf(w, "ID:\t%s\n", st.ID)
				fmt.Fprintf(w, "Identity:\t%s\n", utils.FormatIdentity(st.GitUserName, st.GitEmail))
				fmt.Fprintf(w, "Auth:\t%s\n", st.AuthMethod)
				switch st.AuthMethod {
				case profile.AuthSSH:
					fmt.Fprintf(w, "SSH key:\t%s\n", orDash(st.SSHKeyPath))
					fmt.Fprintf(w, "SSH host:\t%s\n", orDash(st.SSHHost))
				case profile.AuthHTTPS:
					fmt.Fprintf(w, "Token:\t%s\n", yesNo(st.HasToken, "stored", "not stored"))
				}
				if st.AvatarURL != "" {
					fmt.Fprintf(w, "Avatar:\t%s\n", st.AvatarURL)
				}
				fmt.Fprintf(w, "Active:\t%s\n", yesNo(st.Active, "yes", "no"))
				// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
				_ = w.Flush()
			})
		},
	}
}

// newProfileDuplicateCmd creates the profile duplicate command.
func (cli *CLI) newProfileDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "duplicate <profile>",
		Aliases:           []string{"dup", "copy"},
		Short:             "Copy a profile under a new id",
		Long:              `Copy a profile as "<name> (Copy)". HTTPS tokens are copied too.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			src, err := cli.Service.Lookup(args[0])
			if err != nil {
				return err
			}
			p, err := cli.Service.DuplicateProfile(src.ID)
			if err != nil {
				return err
			}
			return output.Write(p, func() {
				fmt.Fprintf(output.Writer(), "Profile %q created (id %s)\n", p.Name, p.ID)
			})
		},
	}
}

// newSwitchCmd creates the top-level switch command.
func (cli *CLI) newSwitchCmd() *cobra.Command {
	cmd := cli.newProfileUseCmd("switch")
	cmd.Short = "Switch to a profile (same as profile use)"
	return cmd
}

// newProfileUseCmd creates the profile use command under the given name.
func (cli *CLI) newProfileUseCmd(use string) *cobra.Command {
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   use + " <profile>",
		Short: "Switch the git identity to a profile",
		Long: `Switch the git identity to a profile.

The identity is written to the repository config (--scope local) or to the
user config (--scope global). Without --scope the default_scope setting is
used. A local switch outside a repository fails and changes nothing.

On a local switch with auto_switch_remote enabled the origin remote is
pointed at the profile's ssh host alias, or at the HTTPS host for https
profiles. HTTPS tokens are cached in git's credential store.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: cli.completeProfiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			p, err := cli.Service.Lookup(args[0])
			if err != nil {
				return err
			}
			scope, err := cli.switchScope(cmd.Flags().Changed("scope"), scopeFlag)
			if err != nil {
				return err
			}

			res, err := cli.Service.SwitchProfile(cmd.Context(), p.ID, scope)
			if errors.Is(err, gitident.ErrNoWorkspace) {
				return fmt.Errorf("%w (pass --scope global to switch the user identity)", err)
			}
			if err != nil {
				return err
			}
			return output.Write(res, func() { printSwitchResult(output, res) })
		},
	}

	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "Config scope to write (local, global)")
	_ = cmd.RegisterFlagCompletionFunc("scope", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{config.ScopeLocal, config.ScopeGlobal}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// switchScope resolves the scope of a switch: the --scope value when given,
// default_scope otherwise. A local scope is kept outside a repository so the
// switch fails instead of touching the user config.
func (cli *CLI) switchScope(explicit bool, value string) (gitexec.Scope, error) {
	if explicit {
		return parseScope(value)
	}
	return parseScope(cli.Config.DefaultScope)
}

func printSwitchResult(output *OutputWriter, res switcher.SwitchResult) {
	w := output.Writer()
	fmt.Fprintf(w, "Switched to %q: %s (%s)\n", res.Profile.Name,
		utils.FormatIdentity(res.Profile.GitUserName, res.Profile.GitEmail), res.Scope)
	if !res.Previous.IsZero() {
		fmt.Fprintf(w, "Replaced %s\n", utils.FormatIdentity(res.Previous.Name, res.Previous.Email))
	}
	if res.RemoteUpdated {
		fmt.Fprintln(w, "Updated origin remote URL")
	}
	if res.HelperInstalled {
		fmt.Fprintln(w, "Configured git credential helper 'store'")
	}
	if res.CredentialsCached {
		fmt.Fprintln(w, "Cached HTTPS credentials")
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// completeProfiles completes profile names. It runs without initialize.
func (cli *CLI) completeProfiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return cli.getProfileNames(), cobra.ShellCompDirectiveNoFileComp
}

// getProfileNames returns the names of the stored profiles.
func (cli *CLI) getProfileNames() []string {
	st, err := profile.NewFileBackend(config.GetPaths().StateFile).Load()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(st.Profiles))
	for _, p := range st.Profiles {
		names = append(names, p.Name)
	}
	return names
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
