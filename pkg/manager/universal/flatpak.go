// Package universal implements the cross-distribution managers: Flatpak and
// the pikman meta-manager.
package universal

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"birdnest/internal/executor"
	"birdnest/pkg/manager"

	"github.com/rs/zerolog"
)

// Flatpak implements the Manager interface for Flatpak.
type Flatpak struct {
	name          string
	displayName   string
	binary        string
	defaultRemote string
	exec          *executor.Executor
	log           zerolog.Logger
}

// NewFlatpak creates a new Flatpak manager instance.
func NewFlatpak(defaultRemote string, exec *executor.Executor) *Flatpak {
	if defaultRemote == "" {
		defaultRemote = "flathub"
	}
	if exec == nil {
		exec = executor.New(false, false)
	}
	return &Flatpak{
		name:          "flatpak",
		displayName:   "Flatpak",
		binary:        "flatpak",
		defaultRemote: defaultRemote,
		exec:          exec,
		log:           zerolog.Nop(),
	}
}

// Name returns the short identifier.
func (f *Flatpak) Name() string {
	return f.name
}

// DisplayName returns the human-readable name.
func (f *Flatpak) DisplayName() string {
	return f.displayName
}

// Type returns the manager type.
func (f *Flatpak) Type() manager.ManagerType {
	return manager.TypeUniversal
}

// IsAvailable returns true if Flatpak is installed.
func (f *Flatpak) IsAvailable() bool {
	_, err := exec.LookPath(f.binary)
	return err == nil
}

// NeedsSudo returns false: installs go through the Flatpak system helper.
func (f *Flatpak) NeedsSudo() bool {
	return false
}

// SetLogger attaches a logger tagged with the manager name.
func (f *Flatpak) SetLogger(log zerolog.Logger) {
	f.log = log.With().Str("manager", f.name).Logger()
}

// SearchApps runs flatpak search and parses its output.
func (f *Flatpak) SearchApps(ctx context.Context, query string) ([]manager.FlatpakRecord, error) {
	output, err := f.exec.Text(ctx, executor.Command{Name: f.binary, Args: []string{"search", query}})
	if err != nil {
		return nil, err
	}
	return ParseFlatpakSearch(output), nil
}

// Search finds Flatpak applications matching the query.
func (f *Flatpak) Search(ctx context.Context, query string) ([]manager.Hit, error) {
	apps, err := f.SearchApps(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := make([]manager.Hit, 0, len(apps))
	for _, app := range apps {
		hits = append(hits, app.Hit())
	}
	return hits, nil
}

// ListInstalled returns the installed applications and runtimes.
func (f *Flatpak) ListInstalled(ctx context.Context) ([]manager.FlatpakRecord, error) {
	output, err := f.exec.Text(ctx, executor.Command{
		Name: f.binary,
		Args: []string{"list", "--columns=name,application"},
	})
	if err != nil {
		return nil, err
	}
	return ParseFlatpakList(output), nil
}

// Details reads flatpak info for an installed application, falling back to
// remote-info on the default remote for applications not installed yet.
func (f *Flatpak) Details(ctx context.Context, appID string) (*manager.PackageDetail, error) {
	if err := manager.ValidateAppID(appID); err != nil {
		return nil, err
	}

	output, err := f.exec.Text(ctx, executor.Command{Name: f.binary, Args: []string{"info", appID}})
	if err != nil {
		f.log.Debug().Err(err).Str("app", appID).Msg("flatpak info failed, trying remote-info")
		output, err = f.exec.Text(ctx, executor.Command{
			Name: f.binary,
			Args: []string{"remote-info", f.defaultRemote, appID},
		})
		if err != nil {
			return nil, fmt.Errorf("application '%s' not found: %w", appID, err)
		}
	}

	detail := ParseFlatpakInfo(output)
	if detail.Name == "" {
		detail.Name = appID
	}
	return detail, nil
}

// InstallCommand builds flatpak install for targets.
func (f *Flatpak) InstallCommand(targets []string) (executor.Command, error) {
	if err := validateAppIDs(targets); err != nil {
		return executor.Command{}, err
	}
	return executor.Command{
		Name: f.binary,
		Args: append([]string{"install", "-y"}, targets...),
	}, nil
}

// RemoveCommand builds flatpak uninstall for targets.
func (f *Flatpak) RemoveCommand(targets []string) (executor.Command, error) {
	if err := validateAppIDs(targets); err != nil {
		return executor.Command{}, err
	}
	return executor.Command{
		Name: f.binary,
		Args: append([]string{"uninstall", "--noninteractive", "-y"}, targets...),
	}, nil
}

// UpgradeCommand builds flatpak update. No targets updates every app and runtime.
func (f *Flatpak) UpgradeCommand(targets []string) (executor.Command, error) {
	if len(targets) > 0 {
		if err := validateAppIDs(targets); err != nil {
			return executor.Command{}, err
		}
	}
	return executor.Command{
		Name: f.binary,
		Args: append([]string{"update", "--noninteractive", "-y"}, targets...),
	}, nil
}

// UpdateCommand refreshes the appstream metadata of configured remotes.
func (f *Flatpak) UpdateCommand() executor.Command {
	return executor.Command{Name: f.binary, Args: []string{"update", "--appstream"}}
}

func validateAppIDs(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("no applications specified")
	}
	for _, id := range ids {
		if err := manager.ValidateAppID(strings.TrimSpace(id)); err != nil {
			return err
		}
	}
	return nil
}
