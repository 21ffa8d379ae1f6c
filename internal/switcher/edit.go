package switcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/secrets"
)

// AddProfile normalizes and stores data as a new profile. For HTTPS
// profiles a non-empty token is stored; for ssh profiles an owned host
// block is added when the alias is not declared yet. The profile is kept
// when a later step fails; the error says which step.
func (s *Service) AddProfile(data profile.Profile, token string) (profile.Profile, error) {
	data = profile.Normalize(data)
	if err := profile.Validate(data); err != nil {
		return profile.Profile{}, err
	}

	p, err := s.store.Add(data)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}

	if p.AuthMethod == profile.AuthHTTPS && token != "" {
		if err := s.tokens.Store(p.ID, token); err != nil {
			return p, fmt.Errorf("profile %q saved but its token was not: %w", p.Name, err)
		}
	}
	if err := s.addHostEntry(p); err != nil {
		return p, fmt.Errorf("profile %q saved but its ssh host entry was not: %w", p.Name, err)
	}
	return p, nil
}

// UpdateProfile merges patch into the profile with the given id. A non-nil
// token replaces the stored one for HTTPS profiles; switching away from
// HTTPS deletes the stored token. When the ssh alias or key of the profile
// changes, the old host block marked with its name is replaced. Blocks
// other profiles own under the same alias are left alone.
func (s *Service) UpdateProfile(id string, patch profile.Patch, token *string) (profile.Profile, error) {
	prev, err := s.GetProfile(id)
	if err != nil {
		return profile.Profile{}, err
	}

	next := profile.Normalize(patch.Apply(prev))
	if err := profile.Validate(next); err != nil {
		return profile.Profile{}, err
	}
	if _, err := s.store.Replace(next); err != nil {
		return profile.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}

	switch {
	case next.AuthMethod == profile.AuthHTTPS && token != nil && *token != "":
		if err := s.tokens.Store(id, *token); err != nil {
			return next, fmt.Errorf("profile %q saved but its token was not: %w", next.Name, err)
		}
	case next.AuthMethod != profile.AuthHTTPS:
		if err := s.deleteToken(id); err != nil {
			return next, fmt.Errorf("profile %q saved but its token was not deleted: %w", next.Name, err)
		}
	}

	if s.ssh != nil && staleHostEntry(prev, next) {
		if _, err := s.ssh.RemoveOwnedEntry(prev.SSHHost, prev.Name); err != nil {
			return next, fmt.Errorf("profile %q saved but its old ssh host entry was not removed: %w", next.Name, err)
		}
	}
	if err := s.addHostEntry(next); err != nil {
		return next, fmt.Errorf("profile %q saved but its ssh host entry was not: %w", next.Name, err)
	}
	if next.SSHHost != prev.SSHHost {
		if err := s.restoreSharedHost(prev.SSHHost, id); err != nil {
			return next, err
		}
	}
	return next, nil
}

// restoreSharedHost writes a block for the first other ssh profile using
// alias, so an alias keeps a block while some profile still refers to it.
func (s *Service) restoreSharedHost(alias, exceptID string) error {
	if s.ssh == nil || alias == "" {
		return nil
	}
	for _, p := range s.store.List() {
		if p.ID == exceptID || p.SSHHost != alias || profile.ResolveAuthMethod(p) != profile.AuthSSH {
			continue
		}
		if err := s.addHostEntry(profile.Resolve(p)); err != nil {
			return fmt.Errorf("failed to restore ssh host entry of %q: %w", p.Name, err)
		}
		return nil
	}
	return nil
}

// staleHostEntry reports whether the owned block written for prev no longer
// describes next.
func staleHostEntry(prev, next profile.Profile) bool {
	if profile.ResolveAuthMethod(prev) != profile.AuthSSH || prev.SSHHost == "" {
		return false
	}
	return next.AuthMethod != profile.AuthSSH ||
		next.SSHHost != prev.SSHHost ||
		next.SSHKeyPath != prev.SSHKeyPath ||
		next.Name != prev.Name
}

// deleteToken removes the token of id. An unavailable secret store holds
// nothing to delete.
func (s *Service) deleteToken(id string) error {
	err := s.tokens.Delete(id)
	if errors.Is(err, secrets.ErrKeyringUnavailable) {
		if s.log != nil {
			s.log.Debug("secret store unavailable, token not deleted", "profile", id)
		}
		return nil
	}
	return err
}

func (s *Service) addHostEntry(p profile.Profile) error {
	if s.ssh == nil || p.AuthMethod != profile.AuthSSH || !p.HasSSHBlock() {
		return nil
	}
	_, err := s.ssh.AddHostEntry(p)
	return err
}

// RemoveProfile deletes the profile with the given id together with its
// owned ssh host block, its cached HTTPS credential and its token.
func (s *Service) RemoveProfile(ctx context.Context, id string) error {
	p, err := s.GetProfile(id)
	if err != nil {
		return err
	}

	switch profile.ResolveAuthMethod(p) {
	case profile.AuthSSH:
		if s.ssh != nil && p.SSHHost != "" {
			if _, err := s.ssh.RemoveOwnedEntry(p.SSHHost, p.Name); err != nil {
				return fmt.Errorf("failed to remove ssh host entry: %w", err)
			}
		}
	case profile.AuthHTTPS:
		s.creds.RejectCredentials(ctx, s.host)
	}

	if err := s.deleteToken(id); err != nil {
		return err
	}
	if _, err := s.store.Remove(id); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	if profile.ResolveAuthMethod(p) == profile.AuthSSH {
		return s.restoreSharedHost(p.SSHHost, id)
	}
	return nil
}

// DuplicateProfile stores a copy of the profile with the given id, named
// "<name> (Copy)". The token of an HTTPS profile is copied too.
func (s *Service) DuplicateProfile(id string) (profile.Profile, error) {
	src, err := s.GetProfile(id)
	if err != nil {
		return profile.Profile{}, err
	}

	token := ""
	if profile.ResolveAuthMethod(src) == profile.AuthHTTPS {
		t, _, err := s.tokens.Get(id)
		if err != nil {
			return profile.Profile{}, err
		}
		token = t
	}

	dup := src
	dup.ID = ""
	dup.Name = src.Name + " (Copy)"
	return s.AddProfile(dup, token)
}
