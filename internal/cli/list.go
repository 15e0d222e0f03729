package cli

import (
	"os"
	"strings"

	"birdnest/internal/ui"
	"birdnest/pkg/database"
	"birdnest/pkg/manager"

	"github.com/spf13/cobra"
)

var (
	listLimit   int
	listPattern string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List installed system packages or Flatpak applications.

System packages come from the installed-package cache, which is rebuilt
from the dpkg database whenever the database has changed.

Examples:
  birdnest list                 # Installed system packages
  birdnest list -s flatpak      # Installed Flatpak applications
  birdnest list -p lib -l 20    # First 20 packages containing 'lib'`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "limit number of results")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "filter by name substring")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if source == "flatpak" {
		if flatpak == nil || !flatpak.IsAvailable() {
			return ErrSourceNotFound
		}
		apps, err := ui.Spin("Listing Flatpak applications...", func() ([]manager.FlatpakRecord, error) {
			return flatpak.ListInstalled(ctx)
		})
		if err != nil {
			return err
		}
		apps = limit(filterApps(apps, listPattern), listLimit)
		if format.Structured() {
			return ui.Encode(os.Stdout, format, apps)
		}
		ui.PrintFlatpaks(os.Stdout, apps)
		ui.MutedMsg("\nTotal: %d applications", len(apps))
		return nil
	}

	pkgs, origin, err := index.Load(ctx)
	if err != nil {
		return err
	}
	logger.Debug().Str("origin", string(origin)).Int("count", len(pkgs)).Msg("loaded installed packages")

	pkgs = limit(filterPackages(pkgs, listPattern), listLimit)
	if format.Structured() {
		return ui.Encode(os.Stdout, format, pkgs)
	}
	ui.PrintInstalled(os.Stdout, pkgs)
	ui.MutedMsg("\nTotal: %d packages (from %s)", len(pkgs), origin)
	return nil
}

func filterPackages(pkgs []database.InstalledPackage, pattern string) []database.InstalledPackage {
	if pattern == "" {
		return pkgs
	}
	pattern = strings.ToLower(pattern)
	var out []database.InstalledPackage
	for _, p := range pkgs {
		if strings.Contains(strings.ToLower(p.Name), pattern) {
			out = append(out, p)
		}
	}
	return out
}

func filterApps(apps []manager.FlatpakRecord, pattern string) []manager.FlatpakRecord {
	if pattern == "" {
		return apps
	}
	pattern = strings.ToLower(pattern)
	var out []manager.FlatpakRecord
	for _, a := range apps {
		if strings.Contains(strings.ToLower(a.ApplicationID), pattern) ||
			strings.Contains(strings.ToLower(a.DisplayName), pattern) {
			out = append(out, a)
		}
	}
	return out
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
