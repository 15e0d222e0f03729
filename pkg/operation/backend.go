package operation

import (
	"context"

	"birdnest/internal/executor"
	"birdnest/pkg/manager"
)

// Backend is the manager an Operation works against.
type Backend interface {
	Name() string
	NeedsSudo() bool
	Details(ctx context.Context, name string) (*manager.PackageDetail, error)
	InstallCommand(targets []string) (executor.Command, error)
	RemoveCommand(targets []string) (executor.Command, error)
}

// Upgrader is a Backend that can upgrade packages. No targets means all.
type Upgrader interface {
	UpgradeCommand(targets []string) (executor.Command, error)
}

// Refresher is a Backend that can refresh its package lists.
type Refresher interface {
	UpdateCommand() executor.Command
}

// Purger is a Backend that can remove packages with their configuration.
type Purger interface {
	PurgeCommand(targets []string) (executor.Command, error)
}

// AutoremoveRemover is a Backend whose remove can also drop dependencies
// nothing needs any more.
type AutoremoveRemover interface {
	RemoveAutoremoveCommand(targets []string) (executor.Command, error)
}

// LineStream is a running command delivering output lines.
type LineStream interface {
	Lines() <-chan executor.Line
	Wait() (int, error)
}

// Runner starts commands in streaming mode.
type Runner interface {
	Stream(cmd executor.Command) (LineStream, error)
}

// Invalidator drops derived state that an install or remove makes stale.
type Invalidator interface {
	Invalidate() error
}

type executorRunner struct {
	exec *executor.Executor
}

// NewRunner adapts an Executor to the Runner interface.
func NewRunner(exec *executor.Executor) Runner {
	return executorRunner{exec: exec}
}

func (r executorRunner) Stream(cmd executor.Command) (LineStream, error) {
	s, err := r.exec.Stream(cmd)
	if err != nil {
		return nil, err
	}
	return s, nil
}
