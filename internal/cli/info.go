package cli

import (
	"fmt"
	"os"

	"birdnest/internal/ui"
	"birdnest/pkg/manager"
	"birdnest/pkg/manager/universal"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [packages...]",
	Short: "Show package information",
	Long: `Display the version, size and description of one or more packages.

Examples:
  birdnest info vim                        # From the system tool
  birdnest info org.gimp.GIMP -s flatpak   # Flatpak, falling back to the remote
  birdnest info vim git curl -o yaml       # Several packages as YAML`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	names := resolvePackages(args)

	mgr, err := getManager()
	if err != nil {
		return err
	}

	var bar *ui.ProgressBar
	if len(names) > 1 && !format.Structured() {
		bar = ui.NewProgressBar(len(names), "Loading package information")
	}

	var (
		details []manager.PackageDetail
		failed  []string
	)
	for _, name := range names {
		d, err := mgr.Details(ctx, name)
		if bar != nil {
			_ = bar.Add(1) //nolint:errcheck
		}
		if err != nil {
			logger.Debug().Err(err).Str("package", name).Msg("failed to load details")
			failed = append(failed, name)
			continue
		}
		details = append(details, *d)
	}
	if bar != nil {
		_ = bar.Finish() //nolint:errcheck
	}

	if len(details) == 0 {
		return fmt.Errorf("no information found for %v in %s", names, mgr.DisplayName())
	}

	if format.Structured() {
		return ui.Encode(os.Stdout, format, details)
	}

	for i := range details {
		ui.PrintDetail(os.Stdout, &details[i], mgr.DisplayName())
		if tracksDpkg(mgr) {
			if ok, err := index.Contains(ctx, details[i].Name); err == nil && ok {
				ui.SuccessMsg("Package is installed")
			} else {
				ui.MutedMsg("Package is not installed")
			}
		}
		fmt.Println()
	}
	for _, name := range failed {
		ui.WarningMsg("No information found for %s", name)
	}
	return nil
}

// tracksDpkg reports whether mgr installs into the dpkg database.
func tracksDpkg(mgr manager.Manager) bool {
	if p, ok := mgr.(*universal.Pikman); ok {
		return p.Distro() == universal.DistroDefault
	}
	return mgr.Type() == manager.TypeNative
}
