// Package native implements the distribution's own package tool.
package native

import (
	"fmt"
	"os/exec"
	"strings"

	"birdnest/internal/executor"
	"birdnest/pkg/manager"

	"github.com/rs/zerolog"
)

// Profile describes a command-line package tool.
type Profile struct {
	Name        string
	DisplayName string
	Binary      string
	Type        manager.ManagerType
	// Env is added to every elevated command.
	Env []string
}

// BaseManager carries a tool's profile, executor and logger, and builds the
// commands its backends share.
type BaseManager struct {
	profile Profile
	exec    *executor.Executor
	log     zerolog.Logger
}

// NewBaseManager creates a BaseManager for profile. A nil executor runs
// commands for real.
func NewBaseManager(profile Profile, exec *executor.Executor) *BaseManager {
	if exec == nil {
		exec = executor.New(false, false)
	}
	return &BaseManager{profile: profile, exec: exec, log: zerolog.Nop()}
}

func (b *BaseManager) Name() string                 { return b.profile.Name }
func (b *BaseManager) DisplayName() string          { return b.profile.DisplayName }
func (b *BaseManager) Type() manager.ManagerType    { return b.profile.Type }
func (b *BaseManager) Binary() string               { return b.profile.Binary }
func (b *BaseManager) Executor() *executor.Executor { return b.exec }
func (b *BaseManager) Logger() *zerolog.Logger      { return &b.log }

// NeedsSudo is always true: every tool here installs system-wide.
func (b *BaseManager) NeedsSudo() bool { return true }

// IsAvailable reports whether the tool's binary is on PATH.
func (b *BaseManager) IsAvailable() bool {
	_, err := exec.LookPath(b.profile.Binary)
	return err == nil
}

// SetLogger attaches a logger tagged with the manager name.
func (b *BaseManager) SetLogger(log zerolog.Logger) {
	b.log = log.With().Str("manager", b.profile.Name).Logger()
}

// Elevated builds a privileged invocation of the tool.
func (b *BaseManager) Elevated(args ...string) executor.Command {
	return executor.Command{
		Name:    b.profile.Binary,
		Args:    args,
		Env:     b.profile.Env,
		Elevate: true,
	}
}

// Hits converts parsed records into search hits attributed to this manager.
func (b *BaseManager) Hits(records []manager.PackageRecord) []manager.Hit {
	hits := make([]manager.Hit, len(records))
	for i, r := range records {
		hits[i] = r.Hit(b.profile.Name)
	}
	return hits
}

// CheckTargets rejects empty target lists and names that are not plain
// package names, so nothing can be passed to the tool as an option.
func CheckTargets(action string, targets []string) error {
	if len(targets) == 0 {
		return fmt.Errorf("no packages to %s", action)
	}
	for _, t := range targets {
		if !manager.ValidName(t) || strings.HasPrefix(t, "-") {
			return fmt.Errorf("invalid package name %q", t)
		}
	}
	return nil
}
