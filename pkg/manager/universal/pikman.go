package universal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"birdnest/internal/executor"
	"birdnest/pkg/manager"
	"birdnest/pkg/manager/native"
)

// Distro selects which guest package universe pikman operates on.
type Distro int

const (
	DistroDefault Distro = iota
	DistroAUR
	DistroFedora
	DistroAlpine
)

// Distros lists every selector in display order.
var Distros = []Distro{DistroDefault, DistroAUR, DistroFedora, DistroAlpine}

// ParseDistro converts a flag value into a Distro.
func ParseDistro(s string) (Distro, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "system":
		return DistroDefault, nil
	case "aur", "arch":
		return DistroAUR, nil
	case "fedora":
		return DistroFedora, nil
	case "alpine":
		return DistroAlpine, nil
	}
	return DistroDefault, fmt.Errorf("unknown distro %q (want default, aur, fedora or alpine)", s)
}

func (d Distro) String() string {
	switch d {
	case DistroAUR:
		return "aur"
	case DistroFedora:
		return "fedora"
	case DistroAlpine:
		return "alpine"
	default:
		return "default"
	}
}

// Flag returns the pikman global option selecting d, or "" for the default.
func (d Distro) Flag() string {
	if d == DistroDefault {
		return ""
	}
	return "--" + d.String()
}

// Source returns the tag attached to records found in d.
func (d Distro) Source() manager.SourceTag {
	switch d {
	case DistroAUR:
		return manager.SourceAUR
	case DistroFedora:
		return manager.SourceFedora
	case DistroAlpine:
		return manager.SourceAlpine
	default:
		return manager.SourceSystem
	}
}

// Pikman implements the Manager interface for the pikman meta-manager.
type Pikman struct {
	*native.BaseManager
	distro Distro
}

// NewPikman creates a pikman manager operating on the default distro.
func NewPikman(exec *executor.Executor) *Pikman {
	return &Pikman{
		BaseManager: native.NewBaseManager(native.Profile{
			Name:        "pikman",
			DisplayName: "pikman (meta-manager)",
			Binary:      "pikman",
			Type:        manager.TypeMeta,
		}, exec),
	}
}

// WithDistro returns a copy of p operating on d.
func (p *Pikman) WithDistro(d Distro) *Pikman {
	clone := *p
	clone.distro = d
	return &clone
}

// Distro returns the selected guest distro.
func (p *Pikman) Distro() Distro {
	return p.distro
}

// globalArgs prepends the distro selector, which pikman only accepts before the subcommand.
func (p *Pikman) globalArgs(args ...string) []string {
	if flag := p.distro.Flag(); flag != "" {
		return append([]string{flag}, args...)
	}
	return args
}

// SearchPackages runs pikman search, retrying elevated when the unelevated
// run is refused for lack of permissions.
func (p *Pikman) SearchPackages(ctx context.Context, query string) ([]manager.PackageRecord, error) {
	cmd := executor.Command{Name: p.Binary(), Args: p.globalArgs("search", query)}

	output, err := p.Executor().Text(ctx, cmd)
	if err != nil && needsElevation(err) {
		p.Logger().Debug().Err(err).Msg("search refused, retrying elevated")
		cmd.Elevate = true
		output, err = p.Executor().Text(ctx, cmd)
	}
	if err != nil {
		return nil, err
	}

	return ParsePikmanSearch(output, p.distro), nil
}

func needsElevation(err error) bool {
	var exitErr *executor.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	stderr := strings.ToLower(exitErr.Stderr)
	return strings.Contains(stderr, "permission") ||
		strings.Contains(stderr, "denied") ||
		(exitErr.Code == 1 && strings.Contains(stderr, "sudo"))
}

// Search finds packages matching the query in the selected distro.
func (p *Pikman) Search(ctx context.Context, query string) ([]manager.Hit, error) {
	records, err := p.SearchPackages(ctx, query)
	if err != nil {
		return nil, err
	}
	return p.Hits(records), nil
}

// Details runs pikman show, which prints apt-style stanzas.
func (p *Pikman) Details(ctx context.Context, name string) (*manager.PackageDetail, error) {
	output, err := p.Executor().Text(ctx, executor.Command{Name: p.Binary(), Args: p.globalArgs("show", name)})
	if err != nil {
		return nil, fmt.Errorf("package '%s' not found: %w", name, err)
	}

	detail := native.ParseShowOutput(output)
	detail.Name = name
	return detail, nil
}

// InstallCommand builds pikman install for targets in the selected distro.
func (p *Pikman) InstallCommand(targets []string) (executor.Command, error) {
	if err := native.CheckTargets("install", targets); err != nil {
		return executor.Command{}, err
	}

	args := []string{"install", "-y"}
	if flag := p.distro.Flag(); flag != "" {
		args = append(args, flag)
	}
	return p.Elevated(append(args, targets...)...), nil
}

// RemoveCommand builds pikman remove for targets in the selected distro.
func (p *Pikman) RemoveCommand(targets []string) (executor.Command, error) {
	if err := native.CheckTargets("remove", targets); err != nil {
		return executor.Command{}, err
	}
	return p.Elevated(p.globalArgs(append([]string{"remove"}, targets...)...)...), nil
}

// RemoveAutoremoveCommand builds pikman remove --autoremove for targets.
func (p *Pikman) RemoveAutoremoveCommand(targets []string) (executor.Command, error) {
	cmd, err := p.RemoveCommand(targets)
	if err != nil {
		return cmd, err
	}
	cmd.Args = append(cmd.Args, "--autoremove")
	return cmd, nil
}

// PurgeCommand builds pikman purge, which also drops configuration files.
func (p *Pikman) PurgeCommand(targets []string) (executor.Command, error) {
	if err := native.CheckTargets("purge", targets); err != nil {
		return executor.Command{}, err
	}
	return p.Elevated(p.globalArgs(append([]string{"purge", "-y"}, targets...)...)...), nil
}

// UpgradeCommand builds pikman upgrade. No targets upgrades everything.
func (p *Pikman) UpgradeCommand(targets []string) (executor.Command, error) {
	if len(targets) > 0 {
		if err := native.CheckTargets("upgrade", targets); err != nil {
			return executor.Command{}, err
		}
	}
	return p.Elevated(p.globalArgs(append([]string{"upgrade", "-y"}, targets...)...)...), nil
}

// UpdateCommand builds pikman update, refreshing the selected distro's lists.
func (p *Pikman) UpdateCommand() executor.Command {
	return p.Elevated(p.globalArgs("update")...)
}

// AutoremoveCommand builds pikman autoremove.
func (p *Pikman) AutoremoveCommand() executor.Command {
	return p.Elevated(p.globalArgs("autoremove", "-y")...)
}

// Upgrades lists pending upgrades for the selected distribution.
func (p *Pikman) Upgrades(ctx context.Context) (string, error) {
	return p.Executor().Text(ctx, executor.Command{Name: p.Binary(), Args: p.globalArgs("upgrades")})
}
