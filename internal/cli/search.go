package cli

import (
	"context"
	"fmt"
	"os"

	"birdnest/internal/ui"
	"birdnest/pkg/manager"
	"birdnest/pkg/operation"

	"github.com/spf13/cobra"
)

var (
	searchLimit   int
	searchInstall bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for packages",
	Long: `Search the system package tool and Flatpak concurrently.

Results are ranked with exact names first, then prefix, substring and
fuzzy matches. Use --source to query a single source, or --distro to
search a pikman guest distribution.

Examples:
  birdnest search firefox               # System tool and Flatpak
  birdnest search vim -s apt            # Only apt
  birdnest search yay --distro aur      # AUR through pikman
  birdnest search editor -l 10 -o json  # First 10 results as JSON
  birdnest search gimp --install        # Pick a result and install it`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 50, "limit results (0 = no limit)")
	searchCmd.Flags().BoolVarP(&searchInstall, "install", "i", false, "pick a result and install it")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]

	var (
		hits []manager.Hit
		err  error
	)
	if source != "" || distroFlag != "" {
		hits, err = searchSingleSource(ctx, query)
		if err != nil {
			return err
		}
	} else {
		hits, err = ui.Spin("Searching for '"+query+"'...", func() ([]manager.Hit, error) {
			return registry.SearchAll(ctx, query)
		})
		if err != nil && len(hits) == 0 {
			return err
		}
		if err != nil {
			ui.WarningMsg("Some sources failed: %v", err)
		}
	}

	if searchLimit > 0 && len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	if format.Structured() {
		return ui.Encode(os.Stdout, format, hits)
	}

	ui.PrintHits(os.Stdout, hits, installedSet(ctx, hits))
	if len(hits) > 0 {
		ui.MutedMsg("\n%d result(s)", len(hits))
	}

	if searchInstall && len(hits) > 0 {
		return installHit(ctx, hits)
	}
	return nil
}

// searchSingleSource searches the manager selected by --source or --distro.
func searchSingleSource(ctx context.Context, query string) ([]manager.Hit, error) {
	mgr, err := getManager()
	if err != nil {
		return nil, err
	}

	hits, err := ui.Spin(fmt.Sprintf("Searching for '%s' in %s...", query, mgr.DisplayName()), func() ([]manager.Hit, error) {
		return mgr.Search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	manager.Rank(hits, query)
	return hits, nil
}

// installedSet marks which hits are already installed, from the
// installed-package index for system hits and the Flatpak list for apps.
// Guest distribution packages are never marked.
func installedSet(ctx context.Context, hits []manager.Hit) map[string]bool {
	var wantSystem, wantFlatpak bool
	for _, h := range hits {
		switch h.Source {
		case "Flatpak":
			wantFlatpak = true
		case manager.SourceSystem.String():
			wantSystem = true
		}
	}

	system := make(map[string]bool)
	if wantSystem {
		if pkgs, err := index.Installed(ctx); err == nil {
			for _, p := range pkgs {
				system[p.Name] = true
			}
		} else {
			logger.Debug().Err(err).Msg("failed to read installed packages")
		}
	}

	apps := make(map[string]bool)
	if wantFlatpak && flatpak != nil && flatpak.IsAvailable() {
		if installed, err := flatpak.ListInstalled(ctx); err == nil {
			for _, a := range installed {
				apps[a.ApplicationID] = true
			}
		}
	}

	installed := make(map[string]bool)
	for _, h := range hits {
		if (h.Source == "Flatpak" && apps[h.ID]) || (h.Source == manager.SourceSystem.String() && system[h.ID]) {
			installed[h.ID] = true
		}
	}
	return installed
}

// installHit lets the user pick a search result and installs it with the
// manager that produced it.
func installHit(ctx context.Context, hits []manager.Hit) error {
	hit, err := ui.SelectHit(hits, "Select a package to install")
	if err != nil {
		return ErrAborted
	}

	mgr, ok := registry.Get(hit.Manager)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, hit.Manager)
	}
	if mgr, err = withDistro(mgr); err != nil {
		return err
	}
	return runOperation(ctx, operation.Install, mgr, []string{hit.ID})
}
