package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"birdnest/internal/history"
	"birdnest/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show operation history",
	Long: `Display the package operations run through
birdnest, with their outcome and any classified conflict.

Examples:
  birdnest history                        # Show recent history
  birdnest history -l 20                  # Show last 20 operations
  birdnest history show                   # Details of the last operation
  birdnest history clear --older-than 720h`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one operation (default: the most recent)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded operations",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyClearCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "only delete entries older than this")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func openHistory() (*history.Store, error) {
	store, err := history.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if format.Structured() {
		return ui.Encode(os.Stdout, format, entries)
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	ui.HeaderMsg("Operation History")
	ui.PrintHistory(os.Stdout, entries)

	total, _ := store.Count() //nolint:errcheck
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var entry *history.Entry
	if len(args) == 1 {
		entry, err = store.Get(args[0])
	} else {
		entry, err = store.Last()
	}
	if err != nil {
		return err
	}
	if entry == nil {
		ui.MutedMsg("No history entries found")
		return nil
	}

	if format.Structured() {
		return ui.Encode(os.Stdout, format, entry)
	}

	ui.HeaderMsg("%s", entry.Summary())
	ui.Println("  ID:        %s", entry.ID)
	ui.Println("  Packages:  %s", strings.Join(entry.Packages, ", "))
	ui.Println("  Outcome:   %s", entry.Status())
	if entry.ExitCode != 0 {
		ui.Println("  Exit code: %d", entry.ExitCode)
	}
	if entry.Error != "" {
		ui.Println("  Error:     %s", entry.Error)
	}
	if entry.CanRollback() {
		ui.MutedMsg("\nReversible with 'birdnest undo'")
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if historyOlderThan > 0 {
		n, err := store.Prune(historyOlderThan)
		if err != nil {
			return err
		}
		ui.SuccessMsg("Deleted %d entries older than %s", n, historyOlderThan)
		return nil
	}

	if !cfg.General.AutoConfirm {
		confirmed, err := ui.Confirm("Delete all history entries?", false)
		if err != nil || !confirmed {
			return ErrAborted
		}
	}
	if err := store.Clear(); err != nil {
		return err
	}
	ui.SuccessMsg("History cleared")
	return nil
}
