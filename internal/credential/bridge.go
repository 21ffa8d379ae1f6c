// Package credential talks to git's credential subsystem: it caches HTTPS
// credentials through git credential approve/reject and implements the
// helper side of the credential protocol.
package credential

import (
	"context"
	"fmt"

	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/gitexec"
)

const (
	helperKey = "credential.helper"
	// FallbackHelper is installed globally when no helper is configured.
	FallbackHelper = "store"
)

// Bridge caches and clears HTTPS credentials through git.
type Bridge struct {
	git       *gitexec.Git
	workspace string
	log       pslog.Logger
}

// NewBridge creates a Bridge. workspace is the repository root consulted
// for a local helper; empty skips the local check.
func NewBridge(git *gitexec.Git, workspace string, logger pslog.Logger) *Bridge {
	return &Bridge{git: git.InDir(workspace), workspace: workspace, log: logger}
}

// EnsureHelper installs the store helper globally unless a helper is
// already configured globally or locally. It reports whether it installed
// one.
func (b *Bridge) EnsureHelper(ctx context.Context) (bool, error) {
	_, ok, err := b.git.ConfigGet(ctx, gitexec.ScopeGlobal, helperKey)
	if err != nil {
		return false, fmt.Errorf("failed to read global credential helper: %w", err)
	}
	if ok {
		return false, nil
	}

	if b.workspace != "" {
		_, ok, err := b.git.ConfigGet(ctx, gitexec.ScopeLocal, helperKey)
		if err != nil {
			return false, fmt.Errorf("failed to read local credential helper: %w", err)
		}
		if ok {
			return false, nil
		}
	}

	if err := b.git.ConfigSet(ctx, gitexec.ScopeGlobal, helperKey, FallbackHelper); err != nil {
		return false, fmt.Errorf("failed to install credential helper: %w", err)
	}
	if b.log != nil {
		b.log.Info("credential helper installed", "helper", FallbackHelper)
	}
	return true, nil
}

// SetCredentials replaces the cached credential for host.
func (b *Bridge) SetCredentials(ctx context.Context, host, username, token string) error {
	b.RejectCredentials(ctx, host)

	rec := Record{Protocol: "https", Host: host, Username: username, Password: token}
	if _, err := b.git.RunInput(ctx, rec.Encode(), "credential", "approve"); err != nil {
		return fmt.Errorf("failed to cache credentials for %s: %w", host, err)
	}
	if b.log != nil {
		b.log.Info("credentials cached", "host", host, "username", username)
	}
	return nil
}

// RejectCredentials clears any cached credential for host. Failures,
// including nothing being cached, are ignored.
func (b *Bridge) RejectCredentials(ctx context.Context, host string) {
	rec := Record{Protocol: "https", Host: host}
	if _, err := b.git.RunInput(ctx, rec.Encode(), "credential", "reject"); err != nil {
		if b.log != nil {
			b.log.Debug("credential reject failed", "host", host, "error", err)
		}
	}
}
