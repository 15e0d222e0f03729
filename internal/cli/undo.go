package cli

import (
	"fmt"
	"strings"

	"birdnest/internal/history"
	"birdnest/internal/ui"
	"birdnest/pkg/manager/universal"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last install, remove or purge",
	Long: `Reverse the most recent successful install, remove or purge recorded
in the history: installed packages are removed and removed or purged
packages are installed again, using the same source and pikman distro.

Examples:
  birdnest undo            # Undo the last operation
  birdnest undo -n         # Show what would run without doing it`,
	RunE: runUndo,
}

func runUndo(cmd *cobra.Command, args []string) error {
	entry, err := lastReversible()
	if err != nil {
		return err
	}

	kind, ok := entry.ReverseKind()
	if !ok {
		return ErrNothingToUndo
	}

	mgr, ok := registry.Get(entry.Source)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, entry.Source)
	}
	if entry.Distro != "" {
		p, ok := mgr.(*universal.Pikman)
		if !ok {
			return fmt.Errorf("%s has no guest distributions", mgr.DisplayName())
		}
		d, err := universal.ParseDistro(entry.Distro)
		if err != nil {
			return err
		}
		mgr = p.WithDistro(d)
	}
	if !mgr.IsAvailable() {
		return fmt.Errorf("%s is not available on this system", mgr.DisplayName())
	}

	ui.InfoMsg("Undoing %s of %s (%s)", entry.Operation, strings.Join(entry.Packages, ", "), entry.FormatTime())
	return runOperation(cmd.Context(), kind, mgr, entry.Packages)
}

func lastReversible() (*history.Entry, error) {
	store, err := openHistory()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	entry, err := store.LastReversible()
	if err != nil {
		logger.Debug().Err(err).Msg("no reversible history entry")
		return nil, ErrNothingToUndo
	}
	return entry, nil
}
