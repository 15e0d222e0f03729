package native

import (
	"context"
	"fmt"
	"strings"

	"birdnest/internal/executor"
	"birdnest/pkg/manager"
)

// noninteractive keeps debconf from prompting inside a streamed operation.
const noninteractive = "DEBIAN_FRONTEND=noninteractive"

// APT implements the Manager interface for Debian's APT tools.
type APT struct {
	*BaseManager
}

// NewAPT creates a new APT manager instance.
func NewAPT(exec *executor.Executor) *APT {
	return &APT{
		BaseManager: NewBaseManager(Profile{
			Name:        "apt",
			DisplayName: "APT (Debian/Ubuntu)",
			Binary:      "apt-get",
			Type:        manager.TypeNative,
			Env:         []string{noninteractive},
		}, exec),
	}
}

// SearchPackages runs apt-cache search and parses its output.
func (a *APT) SearchPackages(ctx context.Context, query string) ([]manager.PackageRecord, error) {
	output, err := a.Executor().Text(ctx, executor.Command{Name: "apt-cache", Args: []string{"search", query}})
	if err != nil {
		return nil, err
	}
	return ParseSearchOutput(output), nil
}

// Search finds packages matching the query.
func (a *APT) Search(ctx context.Context, query string) ([]manager.Hit, error) {
	records, err := a.SearchPackages(ctx, query)
	if err != nil {
		return nil, err
	}
	return a.Hits(records), nil
}

// Details returns the version, description and installed size of a package.
func (a *APT) Details(ctx context.Context, name string) (*manager.PackageDetail, error) {
	output, err := a.Executor().Text(ctx, executor.Command{
		Name: "apt-cache",
		Args: []string{"show", "--no-all-versions", name},
	})
	if err != nil {
		return nil, fmt.Errorf("package '%s' not found: %w", name, err)
	}
	if strings.TrimSpace(output) == "" {
		return nil, fmt.Errorf("package '%s' not found", name)
	}

	detail := ParseShowOutput(output)
	detail.Name = name
	return detail, nil
}

// InstallCommand builds apt-get install for targets.
func (a *APT) InstallCommand(targets []string) (executor.Command, error) {
	return a.command("install", targets)
}

// RemoveCommand builds apt-get remove for targets.
func (a *APT) RemoveCommand(targets []string) (executor.Command, error) {
	return a.command("remove", targets)
}

// RemoveAutoremoveCommand builds apt-get remove --autoremove for targets.
func (a *APT) RemoveAutoremoveCommand(targets []string) (executor.Command, error) {
	cmd, err := a.command("remove", targets)
	if err != nil {
		return cmd, err
	}
	cmd.Args = append(cmd.Args, "--autoremove")
	return cmd, nil
}

// PurgeCommand builds apt-get purge for targets.
func (a *APT) PurgeCommand(targets []string) (executor.Command, error) {
	return a.command("purge", targets)
}

// UpgradeCommand builds apt-get upgrade, or install --only-upgrade when
// targets are named so nothing new gets pulled in.
func (a *APT) UpgradeCommand(targets []string) (executor.Command, error) {
	if len(targets) == 0 {
		return a.Elevated("upgrade", "-y"), nil
	}
	cmd, err := a.command("install", targets)
	if err != nil {
		return cmd, err
	}
	cmd.Args = append([]string{"install", "--only-upgrade"}, cmd.Args[1:]...)
	return cmd, nil
}

// UpdateCommand builds apt-get update.
func (a *APT) UpdateCommand() executor.Command {
	return a.Elevated("update")
}

// AutoremoveCommand builds apt-get autoremove.
func (a *APT) AutoremoveCommand() executor.Command {
	return a.Elevated("autoremove", "-y")
}

func (a *APT) command(action string, targets []string) (executor.Command, error) {
	if err := CheckTargets(action, targets); err != nil {
		return executor.Command{}, err
	}
	return a.Elevated(append([]string{action, "-y"}, targets...)...), nil
}
