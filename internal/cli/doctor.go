package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/inspect"
	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/utils"
)

// CheckResult represents the result of a diagnostic check.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// CheckStatus represents the status of a diagnostic check.
type CheckStatus int

const (
	// CheckOK indicates the check passed.
	CheckOK CheckStatus = iota
	// CheckWarning indicates a non-critical issue.
	CheckWarning
	// CheckError indicates a critical failure.
	CheckError
	// CheckSkipped indicates the check was skipped.
	CheckSkipped
)

// String returns the status name.
func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "OK"
	case CheckWarning:
		return "WARN"
	case CheckError:
		return "ERROR"
	case CheckSkipped:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// Icon returns the status icon for display.
func (s CheckStatus) Icon() string {
	switch s {
	case CheckOK:
		return "[OK]"
	case CheckWarning:
		return "[!!]"
	case CheckError:
		return "[XX]"
	case CheckSkipped:
		return "[--]"
	default:
		return "[??]"
	}
}

// MarshalJSON implements json.Marshaler.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *CheckStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, st := range []CheckStatus{CheckOK, CheckWarning, CheckError, CheckSkipped} {
		if st.String() == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", name)
}

// DoctorOutput represents the doctor command output for JSON.
type DoctorOutput struct {
	Checks      []CheckResult `json:"checks"`
	HasErrors   bool          `json:"has_errors"`
	HasWarnings bool          `json:"has_warnings"`
}

// ErrDiagnosticsFailed is returned by doctor when a check fails.
var ErrDiagnosticsFailed = errors.New("diagnostics failed")

// newDoctorCmd creates the doctor command.
func (cli *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify and troubleshoot common issues.

The doctor command checks:
  - git binary
  - Settings file
  - Profiles
  - Keyring availability
  - ssh directory, host blocks and keys of ssh profiles
  - Credential helper for https profiles
  - Whether git uses the active profile's identity

Use --verbose for suggested fixes.

Examples:
  # Run diagnostics
  gitflip doctor

  # Output as JSON
  gitflip doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := cli.output(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			results := cli.runDiagnostics(ctx)

			hasErrors := false
			hasWarnings := false
			for _, r := range results {
				if r.Status == CheckError {
					hasErrors = true
				}
				if r.Status == CheckWarning {
					hasWarnings = true
				}
			}

			output := DoctorOutput{
				Checks:      results,
				HasErrors:   hasErrors,
				HasWarnings: hasWarnings,
			}

			writeErr := writer.Write(output, func() {
				w := writer.Writer()
				fmt.Fprintln(w, "gitflip Diagnostics")
				fmt.Fprintln(w, "===================")
				fmt.Fprintln(w)

				for _, r := range results {
					fmt.Fprintf(w, "%s %s", r.Status.Icon(), r.Name)
					if r.Message != "" {
						fmt.Fprintf(w, ": %s", r.Message)
					}
					fmt.Fprintln(w)

					if (r.Status == CheckError || r.Status == CheckWarning) && r.Fix != "" && cli.verboseFlag {
						fmt.Fprintf(w, "      -> %s\n", r.Fix)
					}
				}

				fmt.Fprintln(w)
				if hasErrors {
					fmt.Fprintln(w, "Some checks failed. Run with --verbose for suggested fixes.")
				} else if hasWarnings {
					fmt.Fprintln(w, "All critical checks passed with some warnings.")
				} else {
					fmt.Fprintln(w, "All checks passed!")
				}
			})

			if writeErr != nil {
				return writeErr
			}

			if hasErrors {
				return ErrDiagnosticsFailed
			}
			return nil
		},
	}
}

func (cli *CLI) runDiagnostics(ctx context.Context) []CheckResult {
	var results []CheckResult

	results = append(results, cli.checkGit(ctx))
	results = append(results, cli.checkConfigFile())
	results = append(results, cli.checkProfiles())
	results = append(results, cli.checkKeyring())
	results = append(results, cli.checkSSH()...)
	results = append(results, cli.checkCredentialHelper(ctx))
	results = append(results, cli.checkIdentity(inspect.Inspector{}))

	return results
}

func (cli *CLI) checkGit(ctx context.Context) CheckResult {
	if err := cli.Git.Available(); err != nil {
		return CheckResult{
			Name:    "git",
			Status:  CheckError,
			Message: "git binary not found in PATH",
			Fix:     "Install git from https://git-scm.com/downloads",
		}
	}
	v, err := cli.Git.Version(ctx)
	if err != nil {
		return CheckResult{Name: "git", Status: CheckError, Message: err.Error()}
	}
	return CheckResult{Name: "git", Status: CheckOK, Message: v}
}

func (cli *CLI) checkConfigFile() CheckResult {
	path := cli.Config.FilePath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:    "Settings",
				Status:  CheckOK,
				Message: "no settings file, defaults in use",
			}
		}
		return CheckResult{
			Name:    "Settings",
			Status:  CheckError,
			Message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}
	return CheckResult{Name: "Settings", Status: CheckOK, Message: path}
}

func (cli *CLI) checkProfiles() CheckResult {
	profiles := cli.Store.List()
	if len(profiles) == 0 {
		return CheckResult{
			Name:    "Profiles",
			Status:  CheckWarning,
			Message: "no profiles configured",
			Fix:     "Run: gitflip profile add <name> --user=<name> --email=<email>",
		}
	}
	for _, p := range profiles {
		if err := profile.Validate(profile.Normalize(p)); err != nil {
			return CheckResult{
				Name:    "Profiles",
				Status:  CheckWarning,
				Message: fmt.Sprintf("profile %q is incomplete: %v", p.Name, err),
				Fix:     fmt.Sprintf("Run: gitflip profile edit %s", p.ID),
			}
		}
	}
	return CheckResult{Name: "Profiles", Status: CheckOK, Message: fmt.Sprintf("%d configured", len(profiles))}
}

// hasAuth reports whether any profile uses method.
func (cli *CLI) hasAuth(method profile.AuthMethod) bool {
	for _, p := range cli.Store.List() {
		if profile.ResolveAuthMethod(p) == method {
			return true
		}
	}
	return false
}

func (cli *CLI) checkKeyring() CheckResult {
	err := cli.Secrets.IsAvailable()
	if err == nil {
		return CheckResult{Name: "Keyring", Status: CheckOK, Message: "available"}
	}
	status := CheckWarning
	if cli.hasAuth(profile.AuthHTTPS) {
		status = CheckError
	}
	return CheckResult{
		Name:    "Keyring",
		Status:  status,
		Message: err.Error(),
		Fix:     "https profiles need a keyring: install gnome-keyring or kwallet on Linux",
	}
}

func (cli *CLI) checkSSH() []CheckResult {
	if !cli.hasAuth(profile.AuthSSH) {
		return []CheckResult{{Name: "ssh", Status: CheckSkipped, Message: "no ssh profiles"}}
	}

	hosts, err := cli.SSH.ListAllHosts()
	if err != nil {
		return []CheckResult{{Name: "ssh config", Status: CheckError, Message: err.Error()}}
	}
	declared := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		declared[h.Alias] = true
	}

	results := []CheckResult{cli.checkSSHConfigMode()}
	for _, p := range cli.Store.List() {
		if profile.ResolveAuthMethod(p) != profile.AuthSSH {
			continue
		}
		name := fmt.Sprintf("ssh profile %q", p.Name)
		switch {
		case !p.HasSSHBlock():
			results = append(results, CheckResult{
				Name:    name,
				Status:  CheckWarning,
				Message: "key path or host alias missing",
				Fix:     fmt.Sprintf("Run: gitflip profile edit %s --ssh-key=<path> --ssh-host=<alias>", p.ID),
			})
		case !declared[p.SSHHost]:
			results = append(results, CheckResult{
				Name:    name,
				Status:  CheckWarning,
				Message: fmt.Sprintf("host alias %s is not declared in %s", p.SSHHost, cli.SSH.ConfigPath()),
				Fix:     fmt.Sprintf("Run: gitflip profile edit %s --ssh-host=%s", p.ID, p.SSHHost),
			})
		default:
			if _, err := os.Stat(p.SSHKeyPath); err != nil {
				results = append(results, CheckResult{
					Name:    name,
					Status:  CheckError,
					Message: fmt.Sprintf("key %s: %v", p.SSHKeyPath, err),
					Fix:     "Run: gitflip ssh keys, then gitflip profile edit --ssh-key=<path>",
				})
				continue
			}
			results = append(results, CheckResult{Name: name, Status: CheckOK, Message: p.SSHHost})
		}
	}
	return results
}

func (cli *CLI) checkSSHConfigMode() CheckResult {
	path := cli.SSH.ConfigPath()
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Name: "ssh config", Status: CheckWarning, Message: "does not exist: " + path}
		}
		return CheckResult{Name: "ssh config", Status: CheckError, Message: err.Error()}
	}
	if info.Mode().Perm()&0022 != 0 {
		return CheckResult{
			Name:    "ssh config",
			Status:  CheckWarning,
			Message: fmt.Sprintf("%s is writable by others; ssh may refuse it", path),
			Fix:     fmt.Sprintf("Run: chmod 600 %s", path),
		}
	}
	return CheckResult{Name: "ssh config", Status: CheckOK, Message: path}
}

func (cli *CLI) checkCredentialHelper(ctx context.Context) CheckResult {
	const name = "Credential helper"
	if !cli.hasAuth(profile.AuthHTTPS) {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "no https profiles"}
	}
	helper, ok, err := cli.Git.ConfigGet(ctx, gitexec.ScopeGlobal, "credential.helper")
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error()}
	}
	if !ok {
		return CheckResult{
			Name:    name,
			Status:  CheckWarning,
			Message: "no global credential.helper; 'store' is configured on the next https switch",
			Fix:     "Run: git config --global credential.helper store",
		}
	}
	return CheckResult{Name: name, Status: CheckOK, Message: helper}
}

func (cli *CLI) checkIdentity(in inspect.Inspector) CheckResult {
	const name = "Identity"
	p, ok := cli.Service.ActiveProfile()
	if !ok {
		return CheckResult{Name: name, Status: CheckSkipped, Message: "no active profile"}
	}
	r := in.Inspect(cli.Workspace)
	if r.Matches(p) {
		return CheckResult{Name: name, Status: CheckOK, Message: fmt.Sprintf("using %q", p.Name)}
	}
	id := r.Effective()
	return CheckResult{
		Name:    name,
		Status:  CheckWarning,
		Message: fmt.Sprintf("git uses %s, active profile %q is %s", utils.FormatIdentity(id.Name, id.Email), p.Name, utils.FormatIdentity(p.GitUserName, p.GitEmail)),
		Fix:     fmt.Sprintf("Run: gitflip switch %s", p.ID),
	}
}
