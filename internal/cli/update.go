package cli

import (
	"birdnest/pkg/operation"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh package lists",
	Long: `Refresh the package lists from the configured repositories.

This downloads the latest package information but does not install or
upgrade anything. The installed-package cache is left as it is.

Examples:
  birdnest update                  # Refresh the system tool's lists
  birdnest update -s flatpak       # Refresh Flatpak appstream data
  birdnest update --distro fedora  # Refresh lists in the Fedora container`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	return runOperation(cmd.Context(), operation.Update, mgr, nil)
}
