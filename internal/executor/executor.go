// Package executor runs external package tools, optionally with elevated
// privileges, either capturing their output or streaming it line by line.
package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// Executor handles command execution with optional elevation.
type Executor struct {
	dryRun   bool
	verbose  bool
	elevator *Elevator
	log      zerolog.Logger
}

// New creates a new Executor with the given options.
func New(dryRun, verbose bool) *Executor {
	return &Executor{
		dryRun:   dryRun,
		verbose:  verbose,
		elevator: NewElevator("", ""),
		log:      zerolog.Nop(),
	}
}

// SetDryRun enables or disables dry-run mode.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// SetVerbose enables or disables verbose mode.
func (e *Executor) SetVerbose(verbose bool) {
	e.verbose = verbose
}

// SetElevator replaces the elevation policy.
func (e *Executor) SetElevator(elevator *Elevator) {
	e.elevator = elevator
}

// Elevator returns the elevation policy in use.
func (e *Executor) Elevator() *Elevator {
	return e.elevator
}

// SetLogger sets the logger used for command tracing.
func (e *Executor) SetLogger(log zerolog.Logger) {
	e.log = log
}

// DryRun reports whether commands are only logged.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Output runs cmd to completion and returns its captured stdout and stderr.
// A non-zero exit is returned as *ExitError (or ErrAuthCancelled for elevated
// commands exiting 126/127) together with the partial Result.
func (e *Executor) Output(ctx context.Context, cmd Command) (*Result, error) {
	if e.dryRun {
		e.traceDryRun(cmd)
		return &Result{}, nil
	}

	c, err := e.prepare(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	e.trace(cmd, c)

	runErr := c.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	res.ExitCode, err = classify(cmd, runErr, res.Stderr)
	if err != nil {
		e.log.Debug().Err(err).Str("command", cmd.Name).Int("exit_code", res.ExitCode).Msg("command failed")
	}
	return res, err
}

// Text runs cmd and returns only its stdout.
func (e *Executor) Text(ctx context.Context, cmd Command) (string, error) {
	res, err := e.Output(ctx, cmd)
	if res == nil {
		return "", err
	}
	return res.Stdout, err
}

// prepare builds the exec.Cmd for cmd, applying the elevation policy.
func (e *Executor) prepare(ctx context.Context, cmd Command) (*exec.Cmd, error) {
	name, args, env, err := e.elevator.Wrap(cmd)
	if err != nil {
		return nil, err
	}

	c := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		c.Env = append(os.Environ(), env...)
	}
	return c, nil
}

func (e *Executor) trace(cmd Command, c *exec.Cmd) {
	event := e.log.Debug()
	if e.verbose {
		event = e.log.Info()
	}
	event.Str("command", cmd.String()).
		Strs("argv", c.Args).
		Bool("elevated", cmd.Elevate).
		Msg("executing")
}

func (e *Executor) traceDryRun(cmd Command) {
	e.log.Info().
		Str("command", cmd.String()).
		Bool("elevated", cmd.Elevate).
		Str("helper", e.elevator.Helper()).
		Msg("[dry-run] would execute")
}
