package switcher

import (
	"context"
	"fmt"

	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/gitident"
	"github.com/xabinapal/gitflip/internal/profile"
)

// SwitchResult describes what a switch changed.
type SwitchResult struct {
	Profile    profile.Profile    `json:"profile"`
	Scope      gitexec.Scope      `json:"scope"`
	AuthMethod profile.AuthMethod `json:"auth_method"`
	// Previous is the identity set at Scope before the switch.
	Previous gitident.Identity `json:"previous"`
	// RemoteUpdated is set when origin was rewritten.
	RemoteUpdated bool `json:"remote_updated"`
	// HelperInstalled is set when the fallback credential helper was
	// configured.
	HelperInstalled   bool     `json:"helper_installed"`
	CredentialsCached bool     `json:"credentials_cached"`
	Warnings          []string `json:"warnings,omitempty"`
}

func (r *SwitchResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// SwitchProfile applies the identity of the profile with the given id at
// scope and makes it active. A failure to apply the identity aborts the
// switch with nothing changed. Failures in the remote and credential steps
// that follow are reported as warnings.
func (s *Service) SwitchProfile(ctx context.Context, id string, scope gitexec.Scope) (SwitchResult, error) {
	p, err := s.GetProfile(id)
	if err != nil {
		return SwitchResult{}, err
	}

	prev, err := s.ident.CurrentUser(ctx, scope)
	if err != nil && s.log != nil {
		s.log.Debug("could not read previous identity", "scope", scope, "error", err)
	}

	if err := s.ident.SwitchUser(ctx, p, scope); err != nil {
		if nerr := s.notifier.NotifyFailure(p.Name, err); nerr != nil && s.log != nil {
			s.log.Debug("notification failed", "error", nerr)
		}
		return SwitchResult{}, err
	}

	res := SwitchResult{Profile: p, Scope: scope, AuthMethod: profile.ResolveAuthMethod(p), Previous: prev}
	rewrite := s.autoRemote && scope == gitexec.ScopeLocal

	switch res.AuthMethod {
	case profile.AuthSSH:
		if rewrite && p.SSHHost != "" {
			changed, err := s.remote.ToSSH(ctx, p)
			if err != nil {
				res.warn("could not point origin at %s: %v", p.SSHHost, err)
			}
			res.RemoteUpdated = changed
		}
	case profile.AuthHTTPS:
		s.applyToken(ctx, p, &res)
		if rewrite {
			changed, err := s.remote.ToHTTPS(ctx)
			if err != nil {
				res.warn("could not switch origin to HTTPS: %v", err)
			}
			res.RemoteUpdated = changed
		}
	}

	if err := s.store.SetActive(p.ID); err != nil {
		return res, fmt.Errorf("failed to record active profile: %w", err)
	}

	if err := s.notifier.NotifySwitch(p.Name, p.GitUserName, p.GitEmail, string(scope)); err != nil && s.log != nil {
		s.log.Debug("notification failed", "error", err)
	}
	if s.log != nil {
		s.log.Info("profile switched", "profile", p.ID, "scope", scope, "auth", res.AuthMethod, "warnings", len(res.Warnings))
	}
	return res, nil
}

// applyToken caches the stored token of p for the credential host.
func (s *Service) applyToken(ctx context.Context, p profile.Profile, res *SwitchResult) {
	token, ok, err := s.tokens.Get(p.ID)
	if err != nil {
		res.warn("could not read token for %q: %v", p.Name, err)
		return
	}
	if !ok || token == "" {
		res.warn("no token configured for %q; push and pull may require authentication", p.Name)
		return
	}

	installed, err := s.creds.EnsureHelper(ctx)
	if err != nil {
		res.warn("could not configure a credential helper: %v", err)
	}
	res.HelperInstalled = installed

	if err := s.creds.SetCredentials(ctx, s.host, p.GitUserName, token); err != nil {
		res.warn("could not cache credentials: %v", err)
		return
	}
	res.CredentialsCached = true
}
