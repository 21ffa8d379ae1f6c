// Package switcher implements the profile operations offered to users:
// listing, editing, removing, duplicating and switching identities.
package switcher

import (
	"errors"
	"fmt"
	"strings"

	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/credential"
	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/gitident"
	"github.com/xabinapal/gitflip/internal/notify"
	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/remote"
	"github.com/xabinapal/gitflip/internal/secrets"
	"github.com/xabinapal/gitflip/internal/sshconfig"
)

var (
	// ErrProfileNotFound indicates an unknown profile id or name.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrAmbiguousProfile indicates a name or id prefix matching several
	// profiles.
	ErrAmbiguousProfile = errors.New("profile reference is ambiguous")
)

// DefaultCredentialHost is the host HTTPS credentials are cached for.
const DefaultCredentialHost = "github.com"

// Options wires a Service.
type Options struct {
	Store  *profile.Store
	Tokens *secrets.Tokens
	Git    *gitexec.Git
	// Workspace is the repository root, or "" outside a repository.
	Workspace string
	SSH       *sshconfig.Editor
	// CredentialHost defaults to DefaultCredentialHost.
	CredentialHost   string
	AutoSwitchRemote bool
	Notifier         notify.Notifier
	Logger           pslog.Logger
}

// Service runs profile operations against git, the ssh config and the
// secret store.
type Service struct {
	store      *profile.Store
	tokens     *secrets.Tokens
	ident      *gitident.Applier
	ssh        *sshconfig.Editor
	remote     *remote.Rewriter
	creds      *credential.Bridge
	notifier   notify.Notifier
	host       string
	autoRemote bool
	log        pslog.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	host := opts.CredentialHost
	if host == "" {
		host = DefaultCredentialHost
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Discard
	}
	return &Service{
		store:      opts.Store,
		tokens:     opts.Tokens,
		ident:      gitident.New(opts.Git, opts.Workspace, opts.Logger),
		ssh:        opts.SSH,
		remote:     remote.NewRewriter(opts.Git, opts.Workspace, host, opts.Logger),
		creds:      credential.NewBridge(opts.Git, opts.Workspace, opts.Logger),
		notifier:   n,
		host:       host,
		autoRemote: opts.AutoSwitchRemote,
		log:        opts.Logger,
	}
}

// Workspace returns the repository root the service operates on.
func (s *Service) Workspace() string {
	return s.ident.Workspace()
}

// Identity returns the git identity applier.
func (s *Service) Identity() *gitident.Applier {
	return s.ident
}

// ListProfiles returns every profile in stored order with the active one
// flagged.
func (s *Service) ListProfiles() []profile.Info {
	activeID, _ := s.store.ActiveID()
	profiles := s.store.List()
	infos := make([]profile.Info, 0, len(profiles))
	for _, p := range profiles {
		infos = append(infos, profile.NewInfo(p, activeID))
	}
	return infos
}

// GetProfile returns the profile with the given id.
func (s *Service) GetProfile(id string) (profile.Profile, error) {
	p, ok := s.store.Get(id)
	if !ok {
		return profile.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}

// Lookup finds a profile by exact id, then by case-insensitive name, then
// by unique id prefix.
func (s *Service) Lookup(ref string) (profile.Profile, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return profile.Profile{}, fmt.Errorf("%w: empty reference", ErrProfileNotFound)
	}
	if p, ok := s.store.Get(ref); ok {
		return p, nil
	}

	profiles := s.store.List()
	for _, match := range []func(profile.Profile) bool{
		func(p profile.Profile) bool { return strings.EqualFold(p.Name, ref) },
		func(p profile.Profile) bool { return strings.HasPrefix(p.ID, ref) },
	} {
		var found []profile.Profile
		for _, p := range profiles {
			if match(p) {
				found = append(found, p)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return profile.Profile{}, fmt.Errorf("%w: %q matches %d profiles", ErrAmbiguousProfile, ref, len(found))
		}
	}
	return profile.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, ref)
}

// Status returns the detailed view of the profile with the given id.
func (s *Service) Status(id string) (profile.Status, error) {
	p, err := s.GetProfile(id)
	if err != nil {
		return profile.Status{}, err
	}
	activeID, _ := s.store.ActiveID()
	method := profile.ResolveAuthMethod(p)
	return profile.Status{
		Profile:    p,
		AuthMethod: method,
		HasToken:   method == profile.AuthHTTPS && s.tokens.Has(p.ID),
		Active:     p.ID == activeID,
	}, nil
}

// ActiveProfile returns the active profile.
func (s *Service) ActiveProfile() (profile.Profile, bool) {
	return s.store.Active()
}
