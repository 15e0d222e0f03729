package cli

import (
	"os"

	"birdnest/internal/ui"
	"birdnest/pkg/database"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the installed-package cache",
	Long: `The installed-package cache holds the names and versions of installed
system packages. It is valid while it is newer than the dpkg database
and is discarded before every install or remove.

Examples:
  birdnest cache status     # Show whether the cache is valid
  birdnest cache rebuild    # Rebuild it from the dpkg database
  birdnest cache clear      # Delete it`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed-package cache state",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:     "clear",
	Aliases: []string{"clean"},
	Short:   "Delete the installed-package cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := index.Invalidate(); err != nil {
			return err
		}
		ui.SuccessMsg("Installed-package cache cleared")
		return nil
	},
}

var cacheRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the installed-package cache from the dpkg database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := index.Invalidate(); err != nil {
			return err
		}
		pkgs, origin, err := index.Load(cmd.Context())
		if err != nil {
			return err
		}
		ui.SuccessMsg("Indexed %d packages from the %s", len(pkgs), origin)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRebuildCmd)
}

// cacheStatus is the structured form of cache status.
type cacheStatus struct {
	Path      string `json:"path" yaml:"path"`
	StateFile string `json:"state_file" yaml:"state_file"`
	Valid     bool   `json:"valid" yaml:"valid"`
	Packages  int    `json:"packages" yaml:"packages"`
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cache := index.Cache()
	status := cacheStatus{
		Path:      cache.Path(),
		StateFile: index.StatePath(),
	}
	var pkgs []database.InstalledPackage
	pkgs, status.Valid = cache.Load()
	status.Packages = len(pkgs)

	if format.Structured() {
		return ui.Encode(os.Stdout, format, status)
	}

	ui.HeaderMsg("Installed-package cache")
	ui.Println("  Path:       %s", status.Path)
	ui.Println("  State file: %s", status.StateFile)
	if status.Valid {
		ui.SuccessMsg("Valid, %d packages", status.Packages)
	} else {
		ui.WarningMsg("Missing or stale; it will be rebuilt on next use")
	}
	return nil
}
