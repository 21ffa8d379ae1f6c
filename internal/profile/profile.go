// Package profile holds git identity profiles, their persisted store and the
// events published when the store changes.
package profile

// AuthMethod selects how a profile authenticates against the remote.
type AuthMethod string

const (
	// AuthSSH authenticates with an ssh key through a host alias.
	AuthSSH AuthMethod = "ssh"
	// AuthHTTPS authenticates with a personal access token.
	AuthHTTPS AuthMethod = "https"
	// AuthNone only applies the identity.
	AuthNone AuthMethod = "none"
)

// Valid reports whether m is a known method.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthSSH, AuthHTTPS, AuthNone:
		return true
	}
	return false
}

// Profile is a named bundle of git identity and authentication settings.
type Profile struct {
	// ID is assigned on creation and never changes.
	ID string `yaml:"id" json:"id"`
	// Name is a display label; it does not need to be unique.
	Name        string `yaml:"name" json:"name"`
	GitUserName string `yaml:"git_user_name" json:"git_user_name"`
	GitEmail    string `yaml:"git_email" json:"git_email"`
	// AuthMethod may be empty in records written before it existed.
	AuthMethod AuthMethod `yaml:"auth_method,omitempty" json:"auth_method,omitempty"`
	SSHKeyPath string     `yaml:"ssh_key_path,omitempty" json:"ssh_key_path,omitempty"`
	SSHHost    string     `yaml:"ssh_host,omitempty" json:"ssh_host,omitempty"`
	// UseToken is the legacy flag for token authentication.
	UseToken  bool   `yaml:"use_token,omitempty" json:"use_token,omitempty"`
	AvatarURL string `yaml:"avatar_url,omitempty" json:"avatar_url,omitempty"`
}

// ResolveAuthMethod returns the effective auth method of p. An explicit
// method wins; otherwise ssh fields imply ssh, the token flag implies https,
// and anything else is none.
func ResolveAuthMethod(p Profile) AuthMethod {
	if p.AuthMethod.Valid() {
		return p.AuthMethod
	}
	if p.SSHKeyPath != "" || p.SSHHost != "" {
		return AuthSSH
	}
	if p.UseToken {
		return AuthHTTPS
	}
	return AuthNone
}

// Resolve returns p with its auth method made explicit.
func Resolve(p Profile) Profile {
	p.AuthMethod = ResolveAuthMethod(p)
	return p
}

// HasSSHBlock reports whether p carries enough to produce an ssh host block.
func (p Profile) HasSSHBlock() bool {
	return p.SSHKeyPath != "" && p.SSHHost != ""
}

// Ref returns a pointer to v, for building a Patch.
func Ref[T any](v T) *T {
	return &v
}
