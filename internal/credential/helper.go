package credential

import (
	"context"
	"fmt"
	"io"

	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/secrets"
)

// Helper answers git's credential helper requests with the token of the
// active HTTPS profile.
type Helper struct {
	profiles *profile.Store
	tokens   *secrets.Tokens
	host     string
	log      pslog.Logger
}

// NewHelper creates a Helper serving credentials for host.
func NewHelper(profiles *profile.Store, tokens *secrets.Tokens, host string, logger pslog.Logger) *Helper {
	return &Helper{profiles: profiles, tokens: tokens, host: host, log: logger}
}

// activeHTTPS returns the active profile when it authenticates over HTTPS.
func (h *Helper) activeHTTPS() (profile.Profile, bool) {
	p, ok := h.profiles.Active()
	if !ok || profile.ResolveAuthMethod(p) != profile.AuthHTTPS {
		return profile.Profile{}, false
	}
	return p, true
}

// Get reads a request from in and, when it is for the configured host and
// the active profile has a token, writes username and password to out.
// Anything else produces no output so git falls through to other helpers.
func (h *Helper) Get(_ context.Context, in io.Reader, out io.Writer) error {
	req, err := ParseRecord(in)
	if err != nil {
		return err
	}
	if !req.Matches(h.host) {
		return nil
	}
	p, ok := h.activeHTTPS()
	if !ok {
		return nil
	}
	if req.Username != "" && req.Username != p.GitUserName {
		return nil
	}

	token, ok, err := h.tokens.Get(p.ID)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if !ok {
		return nil
	}

	if h.log != nil {
		h.log.Debug("credential served", "profile", p.ID, "host", req.Host)
	}
	resp := Record{Username: p.GitUserName, Password: token}
	_, err = io.WriteString(out, resp.Encode())
	return err
}

// Store saves the password git reports as working for the active profile,
// when the request is for the configured host and the profile has no
// token yet. Existing tokens are never replaced.
func (h *Helper) Store(_ context.Context, in io.Reader) error {
	req, err := ParseRecord(in)
	if err != nil {
		return err
	}
	if !req.Matches(h.host) || req.Password == "" {
		return nil
	}
	p, ok := h.activeHTTPS()
	if !ok || (req.Username != "" && req.Username != p.GitUserName) {
		return nil
	}
	if h.tokens.Has(p.ID) {
		return nil
	}

	if err := h.tokens.Store(p.ID, req.Password); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if h.log != nil {
		h.log.Info("token stored from credential helper", "profile", p.ID)
	}
	return nil
}

// Erase consumes the request. Tokens are managed with gitflip token and
// are kept when git reports them as rejected.
func (h *Helper) Erase(_ context.Context, in io.Reader) error {
	req, err := ParseRecord(in)
	if err != nil {
		return err
	}
	if h.log != nil && req.Matches(h.host) {
		h.log.Debug("credential erase ignored", "host", req.Host)
	}
	return nil
}
