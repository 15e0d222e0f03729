package executor

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrAuthCancelled is returned when an elevated command exits with 126 or 127,
// which the elevation helpers use for a dismissed or failed password prompt.
var ErrAuthCancelled = errors.New("Authentication cancelled or failed. Please try again.") //nolint:staticcheck

// ErrNoPrivileges is returned when an operation requires root but no helper can elevate.
var ErrNoPrivileges = errors.New("this operation requires root privileges, but neither running as root nor an elevation helper is available")

// LaunchError reports that the binary could not be started at all.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError reports a command that ran and exited with a non-zero status.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// IsAuthExitCode reports whether code is one the elevation helpers use for authentication failure.
func IsAuthExitCode(code int) bool {
	return code == 126 || code == 127
}

// ExitCode extracts the exit status from an error returned by this package.
// It returns 0 for nil and -1 when the command never produced a status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var osExit *exec.ExitError
	if errors.As(err, &osExit) {
		return osExit.ExitCode()
	}
	return -1
}

// classify turns the error from exec.Cmd.Run or Wait into the package error taxonomy.
func classify(cmd Command, err error, stderr string) (int, error) {
	if err == nil {
		return 0, nil
	}

	var osExit *exec.ExitError
	if !errors.As(err, &osExit) {
		return -1, &LaunchError{Name: cmd.Name, Err: err}
	}

	code := osExit.ExitCode()
	if cmd.Elevate && IsAuthExitCode(code) {
		return code, ErrAuthCancelled
	}
	return code, &ExitError{Name: cmd.Name, Code: code, Stderr: stderr}
}
