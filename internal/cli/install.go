package cli

import (
	"birdnest/pkg/operation"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [packages...]",
	Short: "Install one or more packages",
	Long: `Install packages with the system package tool or a specified source.

Package information is loaded and shown before anything runs. If the
tool fails because of unmet dependencies, conflicts or held packages,
the failure is explained instead of dumped.

Examples:
  birdnest install vim git curl                 # Install with the system tool
  birdnest install org.mozilla.firefox -s flatpak
  birdnest install yay --distro aur             # Install from the AUR through pikman
  birdnest install -y neovim                    # Install without confirmation
  birdnest install code                         # Uses alias if configured`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	return runOperation(cmd.Context(), operation.Install, mgr, resolvePackages(args))
}
