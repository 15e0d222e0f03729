package manager

import (
	"context"

	"birdnest/internal/executor"
)

// Manager defines what every backend exposes to the CLI and the operation state machine.
type Manager interface {
	// Name returns the short identifier for this manager (e.g., "apt", "flatpak").
	Name() string

	// DisplayName returns a human-readable name.
	DisplayName() string

	// Type returns the category of this manager.
	Type() ManagerType

	// IsAvailable returns true if the backing tool is installed.
	IsAvailable() bool

	// NeedsSudo returns true if install and remove run elevated.
	NeedsSudo() bool

	// Search finds packages matching the query.
	Search(ctx context.Context, query string) ([]Hit, error)

	// Details loads the information shown before confirmation.
	Details(ctx context.Context, name string) (*PackageDetail, error)

	// InstallCommand builds the command that installs targets.
	InstallCommand(targets []string) (executor.Command, error)

	// RemoveCommand builds the command that removes targets.
	RemoveCommand(targets []string) (executor.Command, error)
}
