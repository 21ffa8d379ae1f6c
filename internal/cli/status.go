package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xabinapal/gitflip/internal/gitident"
	"github.com/xabinapal/gitflip/internal/inspect"
	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/utils"
)

// StatusOutput represents the status command output for JSON.
type StatusOutput struct {
	Workspace string                       `json:"workspace,omitempty"`
	Active    *profile.Info                `json:"active,omitempty"`
	Effective gitident.Identity            `json:"effective"`
	Source    string                       `json:"source,omitempty"`
	Scopes    map[string]gitident.Identity `json:"scopes"`
	Helper    inspect.Value                `json:"credential_helper"`
	Origin    string                       `json:"origin,omitempty"`
	// InSync is set when the effective identity is the active profile's.
	InSync bool `json:"in_sync"`
}

// newStatusCmd creates the status command.
func (cli *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the identity git will use",
		Long: `Show the identity git will use here, the scope it comes from, and
whether it matches the active profile.

Config files are read directly; git is not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cli.output(cmd)
			if err != nil {
				return err
			}
			st := cli.buildStatus(inspect.Inspector{})
			return output.Write(st, func() { printStatus(output, st) })
		},
	}
}

func (cli *CLI) buildStatus(in inspect.Inspector) StatusOutput {
	r := in.Inspect(cli.Workspace)
	st := StatusOutput{
		Workspace: r.Workspace,
		Effective: r.Effective(),
		Source:    r.Name.Scope,
		Scopes:    r.Identities,
		Helper:    r.Helper,
		Origin:    r.Origin,
	}
	if p, ok := cli.Service.ActiveProfile(); ok {
		info := profile.NewInfo(p, p.ID)
		st.Active = &info
		st.InSync = r.Matches(p)
	}
	return st
}

func printStatus(output *OutputWriter, st StatusOutput) {
	w := tabwriter.NewWriter(output.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Repository:\t%s\n", orDash(st.Workspace))
	if st.Active != nil {
		fmt.Fprintf(w, "Active profile:\t%s (%s)\n", st.Active.Name, st.Active.AuthMethod)
	} else {
		fmt.Fprintf(w, "Active profile:\t-\n")
	}
	identity := utils.FormatIdentity(st.Effective.Name, st.Effective.Email)
	if st.Source != "" {
		identity += " [" + st.Source + "]"
	}
	fmt.Fprintf(w, "Identity:\t%s\n", identity)
	for _, scope := range inspect.Scopes {
		if id, ok := st.Scopes[scope]; ok {
			fmt.Fprintf(w, "  %s:\t%s\n", scope, utils.FormatIdentity(id.Name, id.Email))
		}
	}
	if st.Helper.Value != "" {
		fmt.Fprintf(w, "Credential helper:\t%s [%s]\n", st.Helper.Value, st.Helper.Scope)
	}
	if st.Origin != "" {
		fmt.Fprintf(w, "Origin:\t%s\n", st.Origin)
	}
	// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
	_ = w.Flush()

	if st.Active != nil && !st.InSync {
		fmt.Fprintf(output.Writer(), "\nWarning: git is not using the identity of %q; run 'gitflip switch %s'\n",
			st.Active.Name, st.Active.Name)
	}
}
