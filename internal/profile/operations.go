package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xabinapal/gitflip/internal/utils"
)

// ErrInvalidProfile indicates a profile that cannot be stored.
var ErrInvalidProfile = errors.New("invalid profile")

// Normalize resolves the auth method of p and clears the field groups that
// do not belong to it: ssh fields are kept only for ssh, the token flag only
// for https.
func Normalize(p Profile) Profile {
	p = Resolve(p)
	p.Name = strings.TrimSpace(p.Name)
	p.GitUserName = strings.TrimSpace(p.GitUserName)
	p.GitEmail = strings.TrimSpace(p.GitEmail)
	p.SSHKeyPath = strings.TrimSpace(p.SSHKeyPath)
	p.SSHHost = strings.TrimSpace(p.SSHHost)

	switch p.AuthMethod {
	case AuthSSH:
		p.UseToken = false
	case AuthHTTPS:
		p.SSHKeyPath = ""
		p.SSHHost = ""
		p.UseToken = true
	default:
		p.SSHKeyPath = ""
		p.SSHHost = ""
		p.UseToken = false
	}
	return p
}

// Validate checks a normalized profile.
func Validate(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.GitUserName == "" {
		return fmt.Errorf("%w: git user name is required", ErrInvalidProfile)
	}
	if p.GitEmail == "" {
		return fmt.Errorf("%w: git email is required", ErrInvalidProfile)
	}
	if !utils.IsValidEmail(p.GitEmail) {
		return fmt.Errorf("%w: %q is not a valid email address", ErrInvalidProfile, p.GitEmail)
	}
	for _, f := range []struct{ field, value string }{
		{"name", p.Name},
		{"git user name", p.GitUserName},
		{"ssh key path", p.SSHKeyPath},
	} {
		if !utils.IsSafeConfigValue(f.value) {
			return fmt.Errorf("%w: %s must be a single line", ErrInvalidProfile, f.field)
		}
	}
	if !p.AuthMethod.Valid() {
		return fmt.Errorf("%w: unknown auth method %q", ErrInvalidProfile, p.AuthMethod)
	}
	if p.AuthMethod == AuthSSH {
		if p.SSHKeyPath == "" {
			return fmt.Errorf("%w: ssh profiles need an ssh key path", ErrInvalidProfile)
		}
		if !utils.IsValidHostAlias(p.SSHHost) {
			return fmt.Errorf("%w: %q is not a valid ssh host alias", ErrInvalidProfile, p.SSHHost)
		}
	}
	return nil
}

// Patch lists the fields to change on an existing profile. Every non-nil
// field replaces the prior value; a pointer to the zero value clears it.
type Patch struct {
	Name        *string
	GitUserName *string
	GitEmail    *string
	AuthMethod  *AuthMethod
	SSHKeyPath  *string
	SSHHost     *string
	UseToken    *bool
	AvatarURL   *string
}

// Apply returns p with the patch merged in. The id is never changed.
func (pt Patch) Apply(p Profile) Profile {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.GitUserName != nil {
		p.GitUserName = *pt.GitUserName
	}
	if pt.GitEmail != nil {
		p.GitEmail = *pt.GitEmail
	}
	if pt.AuthMethod != nil {
		p.AuthMethod = *pt.AuthMethod
	}
	if pt.SSHKeyPath != nil {
		p.SSHKeyPath = *pt.SSHKeyPath
	}
	if pt.SSHHost != nil {
		p.SSHHost = *pt.SSHHost
	}
	if pt.UseToken != nil {
		p.UseToken = *pt.UseToken
	}
	if pt.AvatarURL != nil {
		p.AvatarURL = *pt.AvatarURL
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (pt Patch) Empty() bool {
	return pt == Patch{}
}
