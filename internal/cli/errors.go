package cli

import "errors"

var (
	// ErrNoManager is returned when no system package tool is installed.
	ErrNoManager = errors.New("no system package tool detected; specify one with --source")

	// ErrNoPackages is returned when no packages are specified.
	ErrNoPackages = errors.New("no packages specified")

	// ErrSourceNotFound is returned when the specified source is not available.
	ErrSourceNotFound = errors.New("specified package source not found")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")

	// ErrNothingToUndo is returned when history holds no reversible operation.
	ErrNothingToUndo = errors.New("no reversible operation in history")
)
