// Package remote rewrites the origin remote between the ssh alias of a
// profile and plain HTTPS.
package remote

import (
	"context"
	"fmt"
	"regexp"

	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/profile"
)

const (
	// Origin is the remote that gets rewritten.
	Origin = "origin"
	// DefaultHTTPSHost is the host used for HTTPS remotes.
	DefaultHTTPSHost = "github.com"
)

// scpURL matches scp-like ssh remotes and captures the repository path.
var scpURL = regexp.MustCompile(`^git@[^:]+:(.+)$`)

// Rewriter changes the origin URL of the open repository.
type Rewriter struct {
	git       *gitexec.Git
	workspace string
	httpsHost string
	log       pslog.Logger
}

// NewRewriter creates a Rewriter for the repository at workspace. An empty
// workspace makes every operation a no-op. httpsHost defaults to
// DefaultHTTPSHost.
func NewRewriter(git *gitexec.Git, workspace, httpsHost string, logger pslog.Logger) *Rewriter {
	if httpsHost == "" {
		httpsHost = DefaultHTTPSHost
	}
	return &Rewriter{
		git:       git.InDir(workspace),
		workspace: workspace,
		httpsHost: httpsHost,
		log:       logger,
	}
}

// SSHURL returns the remote url rewritten to use alias as host, and whether
// url is an scp-like ssh remote.
func SSHURL(url, alias string) (string, bool) {
	m := scpURL.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return "git@" + alias + ":" + m[1], true
}

// HTTPSURL returns the remote url rewritten to https://host/path, and
// whether url is an scp-like ssh remote.
func HTTPSURL(url, host string) (string, bool) {
	m := scpURL.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return "https://" + host + "/" + m[1], true
}

// ToSSH points origin at p's ssh host alias. It does nothing when p has no
// alias, no repository is open, origin is missing or origin is not an ssh
// remote. It reports whether the URL changed.
func (r *Rewriter) ToSSH(ctx context.Context, p profile.Profile) (bool, error) {
	if p.SSHHost == "" {
		return false, nil
	}
	return r.rewrite(ctx, func(url string) (string, bool) {
		return SSHURL(url, p.SSHHost)
	})
}

// ToHTTPS points origin at the HTTPS host. It does nothing when no
// repository is open, origin is missing or origin is not an ssh remote.
func (r *Rewriter) ToHTTPS(ctx context.Context) (bool, error) {
	return r.rewrite(ctx, func(url string) (string, bool) {
		return HTTPSURL(url, r.httpsHost)
	})
}

func (r *Rewriter) rewrite(ctx context.Context, convert func(string) (string, bool)) (bool, error) {
	if r.workspace == "" {
		return false, nil
	}

	current, ok := r.originURL(ctx)
	if !ok {
		return false, nil
	}
	next, ok := convert(current)
	if !ok || next == current {
		return false, nil
	}

	if _, err := r.git.Run(ctx, "remote", "set-url", Origin, next); err != nil {
		return false, fmt.Errorf("failed to update remote: %w", err)
	}
	if r.log != nil {
		r.log.Info("remote updated", "remote", Origin, "url", next)
	}
	return true, nil
}

// originURL returns the origin URL. Any failure to read it, including a
// missing remote, is reported as absent.
func (r *Rewriter) originURL(ctx context.Context) (string, bool) {
	url, err := r.git.Run(ctx, "remote", "get-url", Origin)
	if err != nil {
		if r.log != nil {
			r.log.Debug("origin remote unavailable", "error", err)
		}
		return "", false
	}
	return url, url != ""
}
