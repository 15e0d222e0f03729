package cli

import (
	"birdnest/pkg/operation"

	"github.com/spf13/cobra"
)

var removeAutoremove bool

var removeCmd = &cobra.Command{
	Use:     "remove [packages...]",
	Aliases: []string{"uninstall", "rm"},
	Short:   "Remove one or more packages",
	Long: `Remove packages with the system package tool or a specified source.

When the tool refuses because other packages depend on the target,
birdnest reports which packages block the removal.

Examples:
  birdnest remove vim                  # Remove with the system tool
  birdnest remove -y firefox           # Remove without confirmation
  birdnest remove nginx --autoremove   # Also drop dependencies nothing needs
  birdnest remove org.gnome.Maps -s flatpak`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var purgeCmd = &cobra.Command{
	Use:   "purge [packages...]",
	Short: "Remove packages together with their configuration files",
	Long: `Remove packages and delete their configuration files.

Supported by apt and pikman. Purged packages are reinstalled by
'birdnest undo', though their configuration is not restored.

Examples:
  birdnest purge nginx
  birdnest purge yay --distro aur`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPurge,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeAutoremove, "autoremove", "a", false, "also remove dependencies that are no longer needed")
}

func runRemove(cmd *cobra.Command, args []string) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	var opts []operation.Option
	if removeAutoremove {
		opts = append(opts, operation.WithAutoremove())
	}
	return runOperation(cmd.Context(), operation.Remove, mgr, resolvePackages(args), opts...)
}

func runPurge(cmd *cobra.Command, args []string) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	return runOperation(cmd.Context(), operation.Purge, mgr, resolvePackages(args))
}
