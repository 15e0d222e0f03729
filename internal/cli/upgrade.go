package cli

import (
	"birdnest/pkg/operation"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [packages...]",
	Short: "Upgrade installed packages",
	Long: `Upgrade installed packages to their latest versions.

If no packages are specified, all installed packages are upgraded.
Use 'birdnest upgrades' to see what is pending first.

Examples:
  birdnest upgrade                 # Upgrade everything
  birdnest upgrade vim git         # Upgrade specific packages
  birdnest upgrade --distro aur    # Upgrade the Arch container
  birdnest upgrade -s flatpak -y   # Update all Flatpak apps`,
	RunE: runUpgrade,
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	return runOperation(cmd.Context(), operation.Upgrade, mgr, resolvePackages(args))
}
