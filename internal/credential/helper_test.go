package credential

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/secrets"
)

func newHelperFixture(t *testing.T, active profile.Profile) (*Helper, *secrets.Tokens) {
	t.Helper()
	active.ID = "p1"
	backend := profile.NewMemoryBackend(profile.State{
		Profiles:        []profile.Profile{active},
		ActiveProfileID: "p1",
	})
	store, err := profile.NewStore(backend)
	if err != nil {
		t.Fatal(err)
	}
	tokens := secrets.NewTokens(secrets.NewMockStore())
	return NewHelper(store, tokens, "github.com", nil), tokens
}

var httpsProfile = profile.Profile{
	Name:        "Work",
	GitUserName: "alice",
	GitEmail:    "alice@work.com",
	AuthMethod:  profile.AuthHTTPS,
}

func TestHelperGet(t *testing.T) {
	h, tokens := newHelperFixture(t, httpsProfile)
	if err := tokens.Store("p1", "ghp_secret"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := h.Get(context.Background(), strings.NewReader("protocol=https\nhost=github.com\n\n"), &out)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got := out.String(); got != "username=alice\npassword=ghp_secret\n\n" {
		t.Errorf("output = %q", got)
	}
}

func TestHelperGetNoAnswer(t *testing.T) {
	sshProfile := httpsProfile
	sshProfile.AuthMethod = profile.AuthSSH

	tests := []struct {
		name    string
		active  profile.Profile
		token   string
		request string
	}{
		{"other host", httpsProfile, "tok", "protocol=https\nhost=gitlab.com\n"},
		{"other user", httpsProfile, "tok", "protocol=https\nhost=github.com\nusername=bob\n"},
		{"no token", httpsProfile, "", "protocol=https\nhost=github.com\n"},
		{"ssh profile", sshProfile, "tok", "protocol=https\nhost=github.com\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, tokens := newHelperFixture(t, tt.active)
			if tt.token != "" {
				_ = tokens.Store("p1", tt.token)
			}
			var out bytes.Buffer
			if err := h.Get(context.Background(), strings.NewReader(tt.request), &out); err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestHelperStore(t *testing.T) {
	h, tokens := newHelperFixture(t, httpsProfile)

	in := "protocol=https\nhost=github.com\nusername=alice\npassword=new\n"
	if err := h.Store(context.Background(), strings.NewReader(in)); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if tok, _, _ := tokens.Get("p1"); tok != "new" {
		t.Errorf("token = %q, want new", tok)
	}

	in = "protocol=https\nhost=github.com\nusername=alice\npassword=other\n"
	if err := h.Store(context.Background(), strings.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	if tok, _, _ := tokens.Get("p1"); tok != "new" {
		t.Errorf("existing token replaced with %q", tok)
	}
}

func TestHelperEraseKeepsToken(t *testing.T) {
	h, tokens := newHelperFixture(t, httpsProfile)
	_ = tokens.Store("p1", "keep")

	if err := h.Erase(context.Background(), strings.NewReader("protocol=https\nhost=github.com\n")); err != nil {
		t.Fatal(err)
	}
	if !tokens.Has("p1") {
		t.Error("Erase() must not delete managed tokens")
	}
}
