// Package gitexec runs the git binary.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"pkt.systems/pslog"
)

// Scope selects the git config file a command targets.
type Scope string

const (
	// ScopeLocal is the current repository's config.
	ScopeLocal Scope = "local"
	// ScopeGlobal is the user's config.
	ScopeGlobal Scope = "global"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeLocal || s == ScopeGlobal
}

// Flag returns the git config flag for s.
func (s Scope) Flag() string {
	return "--" + string(s)
}

// Git runs git commands in a working directory.
type Git struct {
	runner CommandRunner
	binary string
	dir    string
	env    []string
	log    pslog.Logger
}

// Option configures a Git.
type Option func(*Git)

// WithRunner replaces the os/exec runner.
func WithRunner(r CommandRunner) Option {
	return func(g *Git) { g.runner = r }
}

// WithBinary sets the git executable name or path.
func WithBinary(binary string) Option {
	return func(g *Git) { g.binary = binary }
}

// WithDir sets the working directory commands run in.
func WithDir(dir string) Option {
	return func(g *Git) { g.dir = dir }
}

// WithEnv sets the full environment passed to git. Nil inherits the
// current process environment.
func WithEnv(env []string) Option {
	return func(g *Git) { g.env = env }
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger pslog.Logger) Option {
	return func(g *Git) { g.log = logger }
}

// New creates a Git.
func New(opts ...Option) *Git {
	g := &Git{
		runner: NewCommandRunner(),
		binary: "git",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the working directory.
func (g *Git) Dir() string {
	return g.dir
}

// InDir returns a copy of g running in dir.
func (g *Git) InDir(dir string) *Git {
	return g.With(WithDir(dir))
}

// With returns a copy of g with opts applied.
func (g *Git) With(opts ...Option) *Git {
	c := *g
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Available checks that the git binary can be found.
func (g *Git) Available() error {
	if _, err := g.runner.LookPath(g.binary); err != nil {
		return errors.Join(ErrGitNotFound, err)
	}
	return nil
}

// Run runs git with args and returns stdout with surrounding whitespace
// trimmed.
func (g *Git) Run(ctx context.Context, args ...string) (string, error) {
	return g.run(ctx, nil, args)
}

// RunInput runs git with args, feeding input on stdin. The input is never
// logged.
func (g *Git) RunInput(ctx context.Context, input string, args ...string) (string, error) {
	return g.run(ctx, strings.NewReader(input), args)
}

func (g *Git) run(ctx context.Context, stdin *strings.Reader, args []string) (string, error) {
	cmd := g.runner.CommandContext(ctx, g.binary, args...)
	if g.dir != "" {
		cmd.SetDir(g.dir)
	}
	if g.env != nil {
		cmd.SetEnv(g.env)
	}
	if stdin != nil {
		cmd.SetStdin(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)

	err := cmd.Run()
	if err != nil {
		code := -1
		var ec exitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		gerr := NewGitError(args, code, stderr.String(), err)
		if g.log != nil {
			g.log.Debug("git command failed", "op", gerr.Operation, "exit", code, "dir", g.dir)
		}
		return "", gerr
	}

	if g.log != nil {
		g.log.Trace("git command", "op", firstArg(args), "dir", g.dir)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ConfigGet reads key from the config at scope. An unset key returns
// ok=false and no error.
func (g *Git) ConfigGet(ctx context.Context, scope Scope, key string) (string, bool, error) {
	out, err := g.Run(ctx, "config", scope.Flag(), "--get", key)
	if err != nil {
		if ExitCodeOf(err) == 1 {
			return "", false, nil
		}
		return "", false, err
	}
	return out, true, nil
}

// ConfigSet writes key at scope.
func (g *Git) ConfigSet(ctx context.Context, scope Scope, key, value string) error {
	_, err := g.Run(ctx, "config", scope.Flag(), key, value)
	return err
}

// Toplevel returns the root of the work tree containing the working
// directory, or "" when it is not inside one.
func (g *Git) Toplevel(ctx context.Context) (string, error) {
	out, err := g.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.Is(err, ErrGitFailed) && ExitCodeOf(err) == 128 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Version returns the output of git --version.
func (g *Git) Version(ctx context.Context) (string, error) {
	return g.Run(ctx, "--version")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
