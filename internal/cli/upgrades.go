package cli

import (
	"fmt"
	"strings"

	"birdnest/internal/ui"
	"birdnest/pkg/manager/universal"

	"github.com/spf13/cobra"
)

var upgradesCmd = &cobra.Command{
	Use:   "upgrades",
	Short: "List pending upgrades through pikman",
	Long: `List packages with pending upgrades as reported by pikman.

Examples:
  birdnest upgrades                 # System packages
  birdnest upgrades --distro aur    # Packages in the Arch container`,
	RunE: runUpgrades,
}

func runUpgrades(cmd *cobra.Command, args []string) error {
	if !pikman.IsAvailable() {
		return fmt.Errorf("%w: pikman", ErrSourceNotFound)
	}

	mgr, err := withDistro(pikman)
	if err != nil {
		return err
	}
	p := mgr.(*universal.Pikman)

	out, err := ui.Spin("Checking for upgrades...", func() (string, error) {
		return p.Upgrades(cmd.Context())
	})
	if err != nil {
		return err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		ui.SuccessMsg("Everything is up to date")
		return nil
	}
	fmt.Println(out)
	return nil
}
