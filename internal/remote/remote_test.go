package remote

import (
	"context"
	"testing"

	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/profile"
)

var work = profile.Profile{ID: "p1", Name: "Work", SSHHost: "work-gh", SSHKeyPath: "/k/id"}

func TestURLConversion(t *testing.T) {
	tests := []struct {
		url       string
		wantSSH   string
		wantHTTPS string
		ok        bool
	}{
		{"git@github.com:acme/app.git", "git@work-gh:acme/app.git", "https://github.com/acme/app.git", true},
		{"git@personal-gh:me/dots", "git@work-gh:me/dots", "https://github.com/me/dots", true},
		{"https://github.com/acme/app.git", "", "", false},
		{"ssh://git@github.com/acme/app.git", "", "", false},
		{"git@github.com:", "", "", false},
	}
	for _, tt := range tests {
		gotSSH, ok := SSHURL(tt.url, "work-gh")
		if ok != tt.ok || gotSSH != tt.wantSSH {
			t.Errorf("SSHURL(%q) = %q, %v", tt.url, gotSSH, ok)
		}
		gotHTTPS, ok := HTTPSURL(tt.url, "github.com")
		if ok != tt.ok || gotHTTPS != tt.wantHTTPS {
			t.Errorf("HTTPSURL(%q) = %q, %v", tt.url, gotHTTPS, ok)
		}
	}
}

func TestToSSH(t *testing.T) {
	fg := gitexec.NewFakeGit("/repo")
	fg.Remotes["origin"] = "git@github.com:acme/app.git"
	r := NewRewriter(fg.Git(), "/repo", "", nil)

	changed, err := r.ToSSH(context.Background(), work)
	if err != nil || !changed {
		t.Fatalf("ToSSH() = %v, %v", changed, err)
	}
	if got := fg.Remotes["origin"]; got != "git@work-gh:acme/app.git" {
		t.Errorf("origin = %q", got)
	}

	changed, err = r.ToSSH(context.Background(), work)
	if err != nil || changed {
		t.Errorf("second ToSSH() = %v, %v, want no change", changed, err)
	}
}

func TestToHTTPS(t *testing.T) {
	fg := gitexec.NewFakeGit("/repo")
	fg.Remotes["origin"] = "git@work-gh:acme/app.git"
	r := NewRewriter(fg.Git(), "/repo", "git.example.com", nil)

	changed, err := r.ToHTTPS(context.Background())
	if err != nil || !changed {
		t.Fatalf("ToHTTPS() = %v, %v", changed, err)
	}
	if got := fg.Remotes["origin"]; got != "https://git.example.com/acme/app.git" {
		t.Errorf("origin = %q", got)
	}
}

func TestRewriteNoOp(t *testing.T) {
	tests := []struct {
		name      string
		workspace string
		remotes   map[string]string
		profile   profile.Profile
		// https is set when ToHTTPS must be a no-op as well.
		https bool
	}{
		{"no workspace", "", map[string]string{"origin": "git@github.com:a/b"}, work, true},
		{"no origin", "/repo", map[string]string{"upstream": "git@github.com:a/b"}, work, true},
		{"https origin", "/repo", map[string]string{"origin": "https://github.com/a/b"}, work, true},
		{"no alias", "/repo", map[string]string{"origin": "git@github.com:a/b"}, profile.Profile{ID: "p2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg := gitexec.NewFakeGit(tt.workspace)
			for k, v := range tt.remotes {
				fg.Remotes[k] = v
			}
			r := NewRewriter(fg.Git(), tt.workspace, "", nil)

			changed, err := r.ToSSH(context.Background(), tt.profile)
			if err != nil || changed {
				t.Errorf("ToSSH() = %v, %v", changed, err)
			}
			if tt.https {
				changed, err = r.ToHTTPS(context.Background())
				if err != nil || changed {
					t.Errorf("ToHTTPS() = %v, %v", changed, err)
				}
			}
			if w := fg.Writes(); len(w) != 0 {
				t.Errorf("unexpected writes: %v", w)
			}
		})
	}
}

func TestRewriteSetURLFailure(t *testing.T) {
	fg := gitexec.NewFakeGit("/repo")
	fg.Remotes["origin"] = "git@github.com:a/b"
	fg.Runner().Handler = func(c gitexec.Call) gitexec.Result {
		if len(c.Args) > 1 && c.Args[1] == "set-url" {
			return gitexec.Result{ExitCode: 3, Stderr: "error: could not lock config file"}
		}
		return gitexec.Result{Stdout: "git@github.com:a/b\n"}
	}
	r := NewRewriter(fg.Git(), "/repo", "", nil)

	if _, err := r.ToSSH(context.Background(), work); err == nil {
		t.Fatal("expected error from set-url failure")
	}
}
