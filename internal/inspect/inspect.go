// Package inspect reads the identity git would use, scope by scope, without
// running git.
package inspect

import (
	"path/filepath"

	"github.com/gopasspw/gitconfig"

	"github.com/xabinapal/gitflip/internal/gitident"
	"github.com/xabinapal/gitflip/internal/profile"
)

// Scopes in the order git resolves them, highest priority first.
var Scopes = []string{"env", "worktree", "local", "global", "system"}

// Value is a config value and the scope it was read from.
type Value struct {
	Value string `json:"value"`
	Scope string `json:"scope,omitempty"`
}

// Report describes the identity configuration seen from a directory.
type Report struct {
	Workspace string `json:"workspace,omitempty"`
	// Identities holds user.name and user.email per scope, for scopes that
	// set either.
	Identities map[string]gitident.Identity `json:"identities"`
	Name       Value                        `json:"name"`
	Email      Value                        `json:"email"`
	Helper     Value                        `json:"credential_helper"`
	Origin     string                       `json:"origin,omitempty"`
}

// Effective returns the identity git will use.
func (r Report) Effective() gitident.Identity {
	return gitident.Identity{Name: r.Name.Value, Email: r.Email.Value}
}

// Matches reports whether the effective identity is p's.
func (r Report) Matches(p profile.Profile) bool {
	return r.Name.Value == p.GitUserName && r.Email.Value == p.GitEmail
}

// Inspector loads git config files.
type Inspector struct {
	// GlobalConfig overrides the per-user config file name, relative to the
	// home directory.
	GlobalConfig string
}

// Inspect reads every config scope visible from workspace. An empty
// workspace reads only the non-repository scopes.
func (in Inspector) Inspect(workspace string) Report {
	cs := gitconfig.New()
	cs.NoWrites = true
	if in.GlobalConfig != "" {
		cs.GlobalConfig = in.GlobalConfig
	}
	gitDir := ""
	if workspace != "" {
		gitDir = filepath.Join(workspace, ".git")
	}
	cs.LoadAll(gitDir)

	r := Report{
		Workspace:  workspace,
		Identities: make(map[string]gitident.Identity),
		Name:       lookup(cs, "user.name"),
		Email:      lookup(cs, "user.email"),
		Helper:     lookup(cs, "credential.helper"),
	}
	for _, scope := range Scopes {
		name, _ := cs.GetFrom("user.name", scope)
		email, _ := cs.GetFrom("user.email", scope)
		if id := (gitident.Identity{Name: name, Email: email}); !id.IsZero() {
			r.Identities[scope] = id
		}
	}
	if workspace != "" {
		r.Origin = cs.GetLocal("remote.origin.url")
	}
	return r
}

// lookup returns key from the highest priority scope that sets it.
func lookup(cs *gitconfig.Configs, key string) Value {
	for _, scope := range Scopes {
		if v, ok := cs.GetFrom(key, scope); ok {
			return Value{Value: v, Scope: scope}
		}
	}
	return Value{}
}
