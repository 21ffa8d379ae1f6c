package gitexec

import (
	"context"
	"io"
	"os/exec"
)

// CommandRunner starts external commands. Tests replace it with FakeRunner.
type CommandRunner interface {
	// LookPath finds the executable in PATH
	LookPath(file string) (string, error)
	// CommandContext creates a command that can be executed
	CommandContext(ctx context.Context, name string, args ...string) Command
}

// Command represents an executable command.
type Command interface {
	// SetDir sets the working directory
	SetDir(dir string)
	// SetEnv sets the environment variables
	SetEnv(env []string)
	// SetStdin sets the stdin reader
	SetStdin(stdin io.Reader)
	// SetStdout sets the stdout writer
	SetStdout(stdout io.Writer)
	// SetStderr sets the stderr writer
	SetStderr(stderr io.Writer)
	// Run starts the command and waits for it to complete
	Run() error
}

// exitCoder is implemented by *exec.ExitError and the fake runner's errors.
type exitCoder interface {
	ExitCode() int
}

type realCommandRunner struct{}

// NewCommandRunner creates a runner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return &realCommandRunner{}
}

func (r *realCommandRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (r *realCommandRunner) CommandContext(ctx context.Context, name string, args ...string) Command {
	// #nosec G204 - name is the git binary, args are built by this package
	return &realCommand{cmd: exec.CommandContext(ctx, name, args...)}
}

type realCommand struct {
	cmd *exec.Cmd
}

func (c *realCommand) SetDir(dir string) {
	c.cmd.Dir = dir
}

func (c *realCommand) SetEnv(env []string) {
	c.cmd.Env = env
}

func (c *realCommand) SetStdin(stdin io.Reader) {
	c.cmd.Stdin = stdin
}

func (c *realCommand) SetStdout(stdout io.Writer) {
	c.cmd.Stdout = stdout
}

func (c *realCommand) SetStderr(stderr io.Writer) {
	c.cmd.Stderr = stderr
}

func (c *realCommand) Run() error {
	return c.cmd.Run()
}
