package profile

import (
	"errors"
	"testing"
)

func TestResolveAuthMethod(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    AuthMethod
	}{
		{"explicit ssh", Profile{AuthMethod: AuthSSH}, AuthSSH},
		{"explicit https with ssh fields", Profile{AuthMethod: AuthHTTPS, SSHHost: "work"}, AuthHTTPS},
		{"explicit none with token flag", Profile{AuthMethod: AuthNone, UseToken: true}, AuthNone},
		{"legacy key path", Profile{SSHKeyPath: "/k/id_work"}, AuthSSH},
		{"legacy host", Profile{SSHHost: "work-gh"}, AuthSSH},
		{"legacy ssh wins over token", Profile{SSHKeyPath: "/k/id_work", UseToken: true}, AuthSSH},
		{"legacy token", Profile{UseToken: true}, AuthHTTPS},
		{"legacy empty", Profile{}, AuthNone},
		{"unknown method falls back to inference", Profile{AuthMethod: "gpg", UseToken: true}, AuthHTTPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAuthMethod(tt.profile)
			if got != tt.want {
				t.Errorf("ResolveAuthMethod() = %q, want %q", got, tt.want)
			}
			// Idempotent
			once := Resolve(tt.profile)
			if twice := Resolve(once); twice != once {
				t.Errorf("Resolve not idempotent: %+v != %+v", twice, once)
			}
			if once.AuthMethod != tt.want {
				t.Errorf("Resolve().AuthMethod = %q, want %q", once.AuthMethod, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("ssh keeps ssh fields only", func(t *testing.T) {
		p := Normalize(Profile{
			Name: " Work ", GitUserName: "Alice", GitEmail: "alice@work.com",
			SSHKeyPath: "/k/id_work", SSHHost: "work-gh", UseToken: true,
		})
		if p.AuthMethod != AuthSSH {
			t.Errorf("AuthMethod = %q, want ssh", p.AuthMethod)
		}
		if p.UseToken {
			t.Error("UseToken should be cleared for ssh")
		}
		if p.SSHKeyPath != "/k/id_work" || p.SSHHost != "work-gh" {
			t.Errorf("ssh fields lost: %+v", p)
		}
		if p.Name != "Work" {
			t.Errorf("Name = %q, want trimmed", p.Name)
		}
	})

	t.Run("https clears ssh fields", func(t *testing.T) {
		p := Normalize(Profile{AuthMethod: AuthHTTPS, SSHKeyPath: "/k/id", SSHHost: "h"})
		if p.SSHKeyPath != "" || p.SSHHost != "" {
			t.Errorf("ssh fields should be cleared: %+v", p)
		}
		if !p.UseToken {
			t.Error("UseToken should be set for https")
		}
	})

	t.Run("none clears everything", func(t *testing.T) {
		p := Normalize(Profile{AuthMethod: AuthNone, SSHHost: "h", UseToken: true, AvatarURL: "https://a/b.png"})
		if p.SSHHost != "" || p.UseToken {
			t.Errorf("auth fields should be cleared: %+v", p)
		}
		if p.AvatarURL != "https://a/b.png" {
			t.Error("AvatarURL should be kept")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		in := Profile{Name: "x", SSHHost: "h", UseToken: true}
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent: %+v != %+v", twice, once)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := Profile{
		Name:        "Work",
		GitUserName: "Alice",
		GitEmail:    "alice@work.com",
		AuthMethod:  AuthNone,
	}

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"valid none", func(*Profile) {}, false},
		{"valid https", func(p *Profile) { p.AuthMethod = AuthHTTPS }, false},
		{"valid ssh", func(p *Profile) { p.AuthMethod = AuthSSH; p.SSHKeyPath = "/k/id"; p.SSHHost = "work-gh" }, false},
		{"missing name", func(p *Profile) { p.Name = "" }, true},
		{"missing user name", func(p *Profile) { p.GitUserName = "" }, true},
		{"missing email", func(p *Profile) { p.GitEmail = "" }, true},
		{"email without at", func(p *Profile) { p.GitEmail = "alice" }, true},
		{"multiline user name", func(p *Profile) { p.GitUserName = "Alice\nBob" }, true},
		{"unknown method", func(p *Profile) { p.AuthMethod = "gpg" }, true},
		{"ssh without key", func(p *Profile) { p.AuthMethod = AuthSSH; p.SSHHost = "work-gh" }, true},
		{"ssh without host", func(p *Profile) { p.AuthMethod = AuthSSH; p.SSHKeyPath = "/k/id" }, true},
		{"ssh wildcard host", func(p *Profile) { p.AuthMethod = AuthSSH; p.SSHKeyPath = "/k/id"; p.SSHHost = "gh-*" }, true},
		{"ssh host with space", func(p *Profile) { p.AuthMethod = AuthSSH; p.SSHKeyPath = "/k/id"; p.SSHHost = "a b" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := Validate(p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("error %v should wrap ErrInvalidProfile", err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	base := Profile{
		ID:          "id-1",
		Name:        "Work",
		GitUserName: "Alice",
		GitEmail:    "alice@work.com",
		AuthMethod:  AuthSSH,
		SSHKeyPath:  "/k/id",
		SSHHost:     "work-gh",
		AvatarURL:   "https://a/b.png",
	}

	t.Run("empty patch keeps everything", func(t *testing.T) {
		if got := (Patch{}).Apply(base); got != base {
			t.Errorf("Apply() = %+v, want %+v", got, base)
		}
		if !(Patch{}).Empty() {
			t.Error("Empty() should be true")
		}
	})

	t.Run("present fields replace", func(t *testing.T) {
		got := Patch{Name: Ref("Personal"), GitEmail: Ref("alice@home.com")}.Apply(base)
		if got.Name != "Personal" || got.GitEmail != "alice@home.com" {
			t.Errorf("fields not replaced: %+v", got)
		}
		if got.GitUserName != "Alice" || got.SSHHost != "work-gh" {
			t.Errorf("unspecified fields changed: %+v", got)
		}
	})

	t.Run("explicit clear", func(t *testing.T) {
		got := Patch{AvatarURL: Ref(""), SSHHost: Ref(""), AuthMethod: Ref(AuthNone)}.Apply(base)
		if got.AvatarURL != "" || got.SSHHost != "" {
			t.Errorf("fields not cleared: %+v", got)
		}
		if got.AuthMethod != AuthNone {
			t.Errorf("AuthMethod = %q", got.AuthMethod)
		}
	})

	t.Run("id is immutable", func(t *testing.T) {
		if got := (Patch{Name: Ref("x")}).Apply(base); got.ID != base.ID {
			t.Errorf("ID changed to %q", got.ID)
		}
	})
}

func TestNewInfo(t *testing.T) {
	p := Profile{ID: "a", Name: "Work", SSHHost: "work-gh"}

	info := NewInfo(p, "a")
	if !info.Active {
		t.Error("expected active")
	}
	if info.AuthMethod != AuthSSH {
		t.Errorf("AuthMethod = %q, want resolved ssh", info.AuthMethod)
	}
	if NewInfo(p, "b").Active {
		t.Error("expected inactive")
	}
	if NewInfo(Profile{}, "").Active {
		t.Error("empty id must never be active")
	}
}
