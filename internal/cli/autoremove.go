package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"birdnest/internal/executor"
	"birdnest/internal/history"
	"birdnest/internal/ui"
	"birdnest/pkg/conflict"
	"birdnest/pkg/operation"

	"github.com/spf13/cobra"
)

// autoremover is implemented by managers that can drop unneeded dependencies.
type autoremover interface {
	Name() string
	DisplayName() string
	AutoremoveCommand() executor.Command
}

var autoremoveCmd = &cobra.Command{
	Use:     "autoremove",
	Aliases: []string{"orphans"},
	Short:   "Remove orphaned packages",
	Long: `Remove packages that were installed as dependencies
but are no longer required by any installed package.

Examples:
  birdnest autoremove           # Remove orphaned packages
  birdnest autoremove -y        # Remove without confirmation`,
	RunE: runAutoremove,
}

func runAutoremove(cmd *cobra.Command, args []string) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	ar, ok := mgr.(autoremover)
	if !ok {
		return fmt.Errorf("%s does not support autoremove", mgr.DisplayName())
	}

	ui.InfoMsg("Removing orphaned packages using %s", ar.DisplayName())

	if !cfg.General.AutoConfirm && !cfg.General.DryRun {
		confirmed, err := ui.Confirm("Remove orphaned packages?", false)
		if err != nil || !confirmed {
			return ErrAborted
		}
	}

	if err := index.Invalidate(); err != nil {
		logger.Debug().Err(err).Msg("failed to invalidate installed-package cache")
	}

	stream, err := exec.Stream(ar.AutoremoveCommand())
	if err != nil {
		return err
	}

	var output strings.Builder
	for line := range stream.Lines() {
		fmt.Println(line.Text)
		output.WriteString(line.Text)
		output.WriteByte('\n')
	}
	code, err := stream.Wait()

	entry := history.NewEntry(history.OpAutoremove, ar.Name(), nil)
	entry.ExitCode = code
	if err == nil {
		entry.MarkSuccess()
	} else {
		entry.MarkFailed(err)
		if report := conflict.Classify(output.String()); report != nil && !errors.Is(err, executor.ErrAuthCancelled) {
			entry.Conflict = report.Category.String()
			entry.Outcome = operation.ConflictDetected.String()
			ui.PrintConflict(os.Stderr, report)
			err = &operation.ConflictError{Report: report}
		}
	}
	if !cfg.General.DryRun {
		recordEntry(entry)
	}
	if err != nil {
		return err
	}

	ui.SuccessMsg("Orphaned packages removed")
	return nil
}
