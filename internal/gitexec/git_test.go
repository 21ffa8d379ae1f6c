package gitexec

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRunTrimsOutputAndRecordsCall(t *testing.T) {
	runner := &FakeRunner{Handler: func(c Call) Result {
		return Result{Stdout: "  hello\n"}
	}}
	g := New(WithRunner(runner), WithDir("/repo"), WithEnv([]string{"A=1"}))

	out, err := g.Run(context.Background(), "status", "--short")
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if out != "hello" {
		t.Errorf("Run() = %q, want hello", out)
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	c := calls[0]
	if c.Name != "git" || c.String() != "git status --short" {
		t.Errorf("call = %q", c.String())
	}
	if c.Dir != "/repo" {
		t.Errorf("Dir = %q, want /repo", c.Dir)
	}
	if len(c.Env) != 1 || c.Env[0] != "A=1" {
		t.Errorf("Env = %v", c.Env)
	}
}

func TestRunInputPassesStdin(t *testing.T) {
	runner := &FakeRunner{}
	g := New(WithRunner(runner))

	if _, err := g.RunInput(context.Background(), "protocol=https\n\n", "credential", "reject"); err != nil {
		t.Fatalf("RunInput() failed: %v", err)
	}
	if got := runner.Calls()[0].Stdin; got != "protocol=https\n\n" {
		t.Errorf("Stdin = %q", got)
	}
}

func TestRunFailureIsGitError(t *testing.T) {
	runner := &FakeRunner{Handler: func(Call) Result {
		return Result{ExitCode: 128, Stderr: "fatal: bad thing\n"}
	}}
	g := New(WithRunner(runner))

	_, err := g.Run(context.Background(), "config", "--local", "user.name", "x")
	if !errors.Is(err, ErrGitFailed) {
		t.Fatalf("error %v should match ErrGitFailed", err)
	}
	var gerr *GitError
	if !errors.As(err, &gerr) {
		t.Fatalf("error %T should be *GitError", err)
	}
	if gerr.Operation != "config" || gerr.ExitCode != 128 || gerr.Stderr != "fatal: bad thing" {
		t.Errorf("GitError = %+v", gerr)
	}
	if !strings.Contains(err.Error(), "git config failed (exit 128): fatal: bad thing") {
		t.Errorf("Error() = %q", err.Error())
	}
	if ExitCodeOf(err) != 128 {
		t.Errorf("ExitCodeOf() = %d", ExitCodeOf(err))
	}
	if ExitCodeOf(errors.New("x")) != -1 {
		t.Error("ExitCodeOf() of a plain error should be -1")
	}
}

func TestConfigGet(t *testing.T) {
	fg := NewFakeGit("/repo")
	fg.Global["user.name"] = "Alice"
	g := fg.Git()
	ctx := context.Background()

	v, ok, err := g.ConfigGet(ctx, ScopeGlobal, "user.name")
	if err != nil || !ok || v != "Alice" {
		t.Errorf("ConfigGet(set) = %q, %v, %v", v, ok, err)
	}

	v, ok, err = g.ConfigGet(ctx, ScopeGlobal, "user.email")
	if err != nil || ok || v != "" {
		t.Errorf("ConfigGet(unset) = %q, %v, %v", v, ok, err)
	}

	fg.Toplevel = ""
	if _, _, err := g.ConfigGet(ctx, ScopeLocal, "user.name"); !errors.Is(err, ErrGitFailed) {
		t.Errorf("ConfigGet(local outside repo) error = %v", err)
	}
}

func TestConfigSet(t *testing.T) {
	fg := NewFakeGit("/repo")
	g := fg.Git()

	if err := g.ConfigSet(context.Background(), ScopeLocal, "user.email", "a@b.c"); err != nil {
		t.Fatalf("ConfigSet() failed: %v", err)
	}
	if fg.Local["user.email"] != "a@b.c" {
		t.Errorf("local config = %v", fg.Local)
	}
	if got := fg.Calls()[0].String(); got != "git config --local user.email a@b.c" {
		t.Errorf("call = %q", got)
	}
}

func TestToplevel(t *testing.T) {
	fg := NewFakeGit("/work/repo")
	g := fg.Git()

	top, err := g.Toplevel(context.Background())
	if err != nil || top != "/work/repo" {
		t.Errorf("Toplevel() = %q, %v", top, err)
	}

	fg.Toplevel = ""
	top, err = g.Toplevel(context.Background())
	if err != nil || top != "" {
		t.Errorf("Toplevel() outside repo = %q, %v", top, err)
	}
}

func TestInDir(t *testing.T) {
	runner := &FakeRunner{}
	g := New(WithRunner(runner), WithDir("/a"))
	other := g.InDir("/b")

	_, _ = other.Run(context.Background(), "status")
	if g.Dir() != "/a" || other.Dir() != "/b" {
		t.Errorf("dirs = %q, %q", g.Dir(), other.Dir())
	}
	if runner.Calls()[0].Dir != "/b" {
		t.Errorf("command ran in %q", runner.Calls()[0].Dir)
	}
}

func TestWithKeepsOriginal(t *testing.T) {
	runner := &FakeRunner{}
	g := New(WithRunner(runner), WithDir("/a"))
	other := g.With(WithEnv([]string{"B=2"}))

	_, _ = g.Run(context.Background(), "status")
	_, _ = other.Run(context.Background(), "status")

	calls := runner.Calls()
	if len(calls[0].Env) != 0 {
		t.Errorf("original env = %v", calls[0].Env)
	}
	if calls[1].Dir != "/a" || len(calls[1].Env) != 1 {
		t.Errorf("copy call = %+v", calls[1])
	}
}

func TestAvailable(t *testing.T) {
	runner := &FakeRunner{}
	g := New(WithRunner(runner))
	if err := g.Available(); err != nil {
		t.Errorf("Available() = %v", err)
	}

	runner.LookPathErr = errors.New("not in PATH")
	if err := g.Available(); !errors.Is(err, ErrGitNotFound) {
		t.Errorf("Available() error = %v, want ErrGitNotFound", err)
	}
}

func TestScope(t *testing.T) {
	if !ScopeLocal.Valid() || !ScopeGlobal.Valid() || Scope("system").Valid() {
		t.Error("Valid() mismatch")
	}
	if ScopeGlobal.Flag() != "--global" {
		t.Errorf("Flag() = %q", ScopeGlobal.Flag())
	}
}

func TestFakeGitWrites(t *testing.T) {
	fg := NewFakeGit("/repo")
	fg.Remotes["origin"] = "git@github.com:a/b.git"
	g := fg.Git()
	ctx := context.Background()

	_, _, _ = g.ConfigGet(ctx, ScopeLocal, "user.name")
	_, _ = g.Run(ctx, "remote", "get-url", "origin")
	_ = g.ConfigSet(ctx, ScopeLocal, "user.name", "x")
	_, _ = g.Run(ctx, "remote", "set-url", "origin", "x")

	writes := fg.Writes()
	if len(writes) != 2 {
		t.Fatalf("Writes() = %v", writes)
	}
}
