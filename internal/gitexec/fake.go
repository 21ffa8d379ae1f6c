package gitexec

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Call records one command started through a FakeRunner.
type Call struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin string
}

// String renders the call as a command line, without stdin.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is what a FakeRunner handler returns for a call.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// FakeExitError is returned by fake commands that exit non-zero.
type FakeExitError struct {
	Code int
}

func (e *FakeExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode returns the simulated exit code.
func (e *FakeExitError) ExitCode() int {
	return e.Code
}

// FakeRunner is a CommandRunner that records calls and answers them through
// Handler. It is exported for tests in other packages.
type FakeRunner struct {
	mu          sync.Mutex
	calls       []Call
	Handler     func(Call) Result
	LookPathErr error
}

// LookPath implements CommandRunner.
func (f *FakeRunner) LookPath(file string) (string, error) {
	if f.LookPathErr != nil {
		return "", f.LookPathErr
	}
	return "/usr/bin/" + file, nil
}

// CommandContext implements CommandRunner.
func (f *FakeRunner) CommandContext(_ context.Context, name string, args ...string) Command {
	return &fakeCommand{runner: f, call: Call{Name: name, Args: append([]string(nil), args...)}}
}

// Calls returns the recorded calls in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Reset forgets recorded calls.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeRunner) record(c Call) Result {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	h := f.Handler
	f.mu.Unlock()
	if h == nil {
		return Result{}
	}
	return h(c)
}

type fakeCommand struct {
	runner *FakeRunner
	call   Call
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *fakeCommand) SetDir(dir string)          { c.call.Dir = dir }
func (c *fakeCommand) SetEnv(env []string)        { c.call.Env = env }
func (c *fakeCommand) SetStdin(stdin io.Reader)   { c.stdin = stdin }
func (c *fakeCommand) SetStdout(stdout io.Writer) { c.stdout = stdout }
func (c *fakeCommand) SetStderr(stderr io.Writer) { c.stderr = stderr }

func (c *fakeCommand) Run() error {
	if c.stdin != nil {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return err
		}
		c.call.Stdin = string(data)
	}
	res := c.runner.record(c.call)
	if c.stdout != nil {
		_, _ = io.WriteString(c.stdout, res.Stdout)
	}
	if c.stderr != nil {
		_, _ = io.WriteString(c.stderr, res.Stderr)
	}
	if res.ExitCode != 0 {
		return &FakeExitError{Code: res.ExitCode}
	}
	return nil
}

// FakeGit emulates the subset of git that gitflip drives: scoped config
// get/set, origin remote lookup and rewrite, work tree detection and the
// credential subcommands.
type FakeGit struct {
	mu sync.Mutex
	// Toplevel is the work tree root; empty means "not a repository".
	Toplevel string
	Global   map[string]string
	Local    map[string]string
	Remotes  map[string]string
	// Approved and Rejected collect credential payloads.
	Approved []string
	Rejected []string
	// Fail makes the named subcommand ("config", "credential", ...) exit 1
	// with a generic error.
	Fail map[string]bool

	runner *FakeRunner
}

// NewFakeGit returns an empty FakeGit inside a repository at toplevel.
func NewFakeGit(toplevel string) *FakeGit {
	fg := &FakeGit{
		Toplevel: toplevel,
		Global:   map[string]string{},
		Local:    map[string]string{},
		Remotes:  map[string]string{},
		Fail:     map[string]bool{},
	}
	fg.runner = &FakeRunner{Handler: fg.handle}
	return fg
}

// Runner returns the CommandRunner backed by fg.
func (fg *FakeGit) Runner() *FakeRunner {
	return fg.runner
}

// Git returns a Git using fg, running in its toplevel.
func (fg *FakeGit) Git() *Git {
	return New(WithRunner(fg.runner), WithDir(fg.Toplevel))
}

// Calls returns the recorded git invocations.
func (fg *FakeGit) Calls() []Call {
	return fg.runner.Calls()
}

// Writes returns the recorded calls that would modify git state.
func (fg *FakeGit) Writes() []Call {
	var out []Call
	for _, c := range fg.runner.Calls() {
		if isWrite(c.Args) {
			out = append(out, c)
		}
	}
	return out
}

func isWrite(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "config":
		return !containsArg(args, "--get")
	case "remote":
		return len(args) > 1 && args[1] == "set-url"
	case "credential":
		return true
	}
	return false
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func (fg *FakeGit) handle(c Call) Result {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	if len(c.Args) == 0 {
		return Result{ExitCode: 129, Stderr: "usage: git"}
	}
	if fg.Fail[c.Args[0]] {
		return Result{ExitCode: 1, Stderr: "fatal: simulated failure"}
	}

	switch c.Args[0] {
	case "--version":
		return Result{Stdout: "git version 2.47.0\n"}
	case "rev-parse":
		if fg.Toplevel == "" {
			return Result{ExitCode: 128, Stderr: "fatal: not a git repository (or any of the parent directories): .git"}
		}
		return Result{Stdout: fg.Toplevel + "\n"}
	case "config":
		return fg.config(c.Args[1:])
	case "remote":
		return fg.remote(c.Args[1:])
	case "credential":
		if len(c.Args) < 2 {
			return Result{ExitCode: 129}
		}
		switch c.Args[1] {
		case "approve":
			fg.Approved = append(fg.Approved, c.Stdin)
		case "reject":
			fg.Rejected = append(fg.Rejected, c.Stdin)
		}
		return Result{}
	}
	return Result{ExitCode: 1, Stderr: "git: '" + c.Args[0] + "' is not a git command"}
}

func (fg *FakeGit) config(args []string) Result {
	if len(args) == 0 {
		return Result{ExitCode: 129}
	}
	var store map[string]string
	switch args[0] {
	case "--global":
		store = fg.Global
	case "--local":
		if fg.Toplevel == "" {
			return Result{ExitCode: 128, Stderr: "fatal: --local can only be used inside a git repository"}
		}
		store = fg.Local
	default:
		return Result{ExitCode: 129, Stderr: "unsupported scope"}
	}
	args = args[1:]

	switch {
	case len(args) == 2 && args[0] == "--get":
		v, ok := store[args[1]]
		if !ok {
			return Result{ExitCode: 1}
		}
		return Result{Stdout: v + "\n"}
	case len(args) == 2:
		store[args[0]] = args[1]
		return Result{}
	}
	return Result{ExitCode: 129, Stderr: "unsupported config invocation"}
}

func (fg *FakeGit) remote(args []string) Result {
	if fg.Toplevel == "" {
		return Result{ExitCode: 128, Stderr: "fatal: not a git repository"}
	}
	switch {
	case len(args) == 2 && args[0] == "get-url":
		url, ok := fg.Remotes[args[1]]
		if !ok {
			return Result{ExitCode: 2, Stderr: "error: No such remote '" + args[1] + "'"}
		}
		return Result{Stdout: url + "\n"}
	case len(args) == 3 && args[0] == "set-url":
		if _, ok := fg.Remotes[args[1]]; !ok {
			return Result{ExitCode: 2, Stderr: "error: No such remote '" + args[1] + "'"}
		}
		fg.Remotes[args[1]] = args[2]
		return Result{}
	}
	return Result{ExitCode: 129, Stderr: "unsupported remote invocation"}
}
