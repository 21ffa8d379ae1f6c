// Package gitident applies a profile's identity to git's user.name and
// user.email.
package gitident

import (
	"context"
	"errors"
	"fmt"

	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/profile"
)

var (
	// ErrNoWorkspace indicates a local-scope operation outside a repository.
	ErrNoWorkspace = errors.New("no git repository open; use global scope or run inside a repository")
	// ErrInvalidScope indicates a scope other than local or global.
	ErrInvalidScope = errors.New("invalid scope")
)

// ConfigurationError reports a request that cannot run in the current
// environment. Nothing has been written when it is returned.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Identity is a git user name and email pair. Unset values are empty.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether neither value is set.
func (i Identity) IsZero() bool {
	return i.Name == "" && i.Email == ""
}

// Applier reads and writes identities through git.
type Applier struct {
	git       *gitexec.Git
	workspace string
	log       pslog.Logger
}

// New creates an Applier. workspace is the repository root used for local
// scope; empty means no repository is open.
func New(git *gitexec.Git, workspace string, logger pslog.Logger) *Applier {
	return &Applier{
		git:       git.InDir(workspace),
		workspace: workspace,
		log:       logger,
	}
}

// Workspace returns the repository root, or "".
func (a *Applier) Workspace() string {
	return a.workspace
}

// SwitchUser writes p's user name and email at scope, overwriting any
// existing values.
func (a *Applier) SwitchUser(ctx context.Context, p profile.Profile, scope gitexec.Scope) error {
	if err := a.checkScope("switch user", scope); err != nil {
		return err
	}

	if err := a.git.ConfigSet(ctx, scope, "user.name", p.GitUserName); err != nil {
		return fmt.Errorf("failed to set user.name: %w", err)
	}
	if err := a.git.ConfigSet(ctx, scope, "user.email", p.GitEmail); err != nil {
		return fmt.Errorf("failed to set user.email: %w", err)
	}

	if a.log != nil {
		a.log.Info("git identity applied", "profile", p.ID, "scope", scope)
	}
	return nil
}

// CurrentUser reads user.name and user.email at scope. Unset keys, and the
// local scope outside a repository, give empty values.
func (a *Applier) CurrentUser(ctx context.Context, scope gitexec.Scope) (Identity, error) {
	if scope == gitexec.ScopeLocal && a.workspace == "" {
		return Identity{}, nil
	}
	if err := a.checkScope("read user", scope); err != nil {
		return Identity{}, err
	}

	name, _, err := a.git.ConfigGet(ctx, scope, "user.name")
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read user.name: %w", err)
	}
	email, _, err := a.git.ConfigGet(ctx, scope, "user.email")
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read user.email: %w", err)
	}
	return Identity{Name: name, Email: email}, nil
}

func (a *Applier) checkScope(op string, scope gitexec.Scope) error {
	if !scope.Valid() {
		return &ConfigurationError{Op: op, Err: fmt.Errorf("%w: %q", ErrInvalidScope, scope)}
	}
	if scope == gitexec.ScopeLocal && a.workspace == "" {
		return &ConfigurationError{Op: op, Err: ErrNoWorkspace}
	}
	return nil
}

// Detect returns the repository root containing dir, or "" when dir is not
// inside a repository.
func Detect(ctx context.Context, git *gitexec.Git, dir string) (string, error) {
	top, err := git.InDir(dir).Toplevel(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to detect repository: %w", err)
	}
	return top, nil
}
