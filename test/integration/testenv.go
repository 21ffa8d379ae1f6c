//go:build integration

// Package integration provides end-to-end tests for gitflip against the real
// git binary.
package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestEnv is an isolated home directory with a git repository and a
// file-backed keyring.
type TestEnv struct {
	Home       string
	Repo       string
	KeyringDir string
	Binary     string
	env        []string
}

// NewTestEnv creates a TestEnv. The repository has an origin remote on
// github.com over ssh.
func NewTestEnv(ctx context.Context, t *testing.T) *TestEnv {
	t.Helper()
	SkipIfGitMissing(t)

	home := t.TempDir()
	e := &TestEnv{
		Home:       home,
		Repo:       filepath.Join(home, "src", "app"),
		KeyringDir: filepath.Join(home, "keyring"),
		Binary:     GitflipBinaryPath(t),
	}
	for _, dir := range []string{e.Repo, e.KeyringDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	e.env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"XDG_DATA_HOME="+filepath.Join(home, ".local", "share"),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_TERMINAL_PROMPT=0",
		"GITFLIP_TEST_KEYRING_DIR="+e.KeyringDir,
	)

	e.Git(ctx, t, "init", "--quiet")
	e.Git(ctx, t, "remote", "add", "origin", "git@github.com:acme/app.git")
	return e
}

// SkipIfGitMissing skips the test if git is not in PATH.
func SkipIfGitMissing(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not found in PATH")
	}
}

// GitflipBinaryPath returns the path to the gitflip binary.
func GitflipBinaryPath(t *testing.T) string {
	t.Helper()

	if path := os.Getenv("GITFLIP_BINARY"); path != "" {
		return path
	}

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get caller information")
	}

	// Go up from test/integration to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	binaryPath := filepath.Join(projectRoot, "bin", "gitflip")
	if runtime.GOOS == "windows" {
		binaryPath += ".exe"
	}

	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Fatalf("gitflip binary not found at %s - run 'go build -o bin/gitflip ./cmd/gitflip' first", binaryPath)
	}
	return binaryPath
}

// Run runs gitflip inside the repository with stdin.
func (e *TestEnv) Run(ctx context.Context, stdin string, args ...string) (string, string, error) {
	return e.RunIn(ctx, e.Repo, stdin, args...)
}

// RunIn runs gitflip in dir with stdin.
func (e *TestEnv) RunIn(ctx context.Context, dir, stdin string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Dir = dir
	cmd.Env = e.env
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// MustRun is Run that fails the test on error.
func (e *TestEnv) MustRun(ctx context.Context, t *testing.T, stdin string, args ...string) string {
	t.Helper()
	stdout, stderr, err := e.Run(ctx, stdin, args...)
	if err != nil {
		t.Fatalf("gitflip %s: %v\nstdout: %s\nstderr: %s", strings.Join(args, " "), err, stdout, stderr)
	}
	return stdout
}

// Git runs git in the repository and returns trimmed stdout.
func (e *TestEnv) Git(ctx context.Context, t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.GitInput(ctx, "", args...)
	if err != nil {
		t.Fatalf("git %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// GitInput runs git in the repository with stdin.
func (e *TestEnv) GitInput(ctx context.Context, stdin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.Repo
	cmd.Env = e.env
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

// ConfigValue returns git config key at scope, or "" when unset.
func (e *TestEnv) ConfigValue(ctx context.Context, scope, key string) string {
	out, _ := e.GitInput(ctx, "", "config", "--"+scope, "--get", key)
	return out
}
