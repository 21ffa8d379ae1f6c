package gitexec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGitFailed matches every *GitError.
	ErrGitFailed = errors.New("git command failed")
	// ErrGitNotFound indicates that no git binary could be found.
	ErrGitNotFound = errors.New("git executable not found")
)

// GitError describes a failed git invocation.
type GitError struct {
	// Operation is the git subcommand, e.g. "config".
	Operation string
	Args      []string
	// ExitCode is -1 when the process did not exit normally.
	ExitCode int
	Stderr   string
	Err      error
}

// NewGitError creates a GitError for args.
func NewGitError(args []string, exitCode int, stderr string, err error) *GitError {
	op := ""
	if len(args) > 0 {
		op = args[0]
	}
	return &GitError{
		Operation: op,
		Args:      args,
		ExitCode:  exitCode,
		Stderr:    strings.TrimSpace(stderr),
		Err:       err,
	}
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Operation)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *GitError) Unwrap() error {
	return e.Err
}

// Is makes every GitError match ErrGitFailed.
func (e *GitError) Is(target error) bool {
	return target == ErrGitFailed
}

// ExitCodeOf returns the exit code carried by a *GitError in err's chain,
// or -1.
func ExitCodeOf(err error) int {
	var gerr *GitError
	if errors.As(err, &gerr) {
		return gerr.ExitCode
	}
	return -1
}
