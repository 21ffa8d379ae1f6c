package profile

// Info represents profile information for listing and display.
type Info struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	GitUserName string     `json:"git_user_name"`
	GitEmail    string     `json:"git_email"`
	AuthMethod  AuthMethod `json:"auth_method"`
	SSHHost     string     `json:"ssh_host,omitempty"`
	Active      bool       `json:"active"`
}

// NewInfo builds the listing view of p.
func NewInfo(p Profile, activeID string) Info {
	return Info{
		ID:          p.ID,
		Name:        p.Name,
		GitUserName: p.GitUserName,
		GitEmail:    p.GitEmail,
		AuthMethod:  ResolveAuthMethod(p),
		SSHHost:     p.SSHHost,
		Active:      p.ID != "" && p.ID == activeID,
	}
}

// Status represents detailed profile information.
type Status struct {
	Profile
	AuthMethod AuthMethod `json:"auth_method"`
	HasToken   bool       `json:"has_token"`
	Active     bool       `json:"active"`
}
