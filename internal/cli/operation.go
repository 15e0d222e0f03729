package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"birdnest/internal/history"
	"birdnest/internal/tui"
	"birdnest/internal/ui"
	"birdnest/pkg/manager"
	"birdnest/pkg/manager/universal"
	"birdnest/pkg/operation"
)

// outputPrinter echoes the operation's output as it streams.
type outputPrinter struct {
	w       io.Writer
	printed int
}

func (p *outputPrinter) observe(s operation.Snapshot) {
	if len(s.Output) > p.printed {
		fmt.Fprint(p.w, s.Output[p.printed:])
		p.printed = len(s.Output)
	}
}

// presentConflict shows a classified conflict in place of a raw failure.
func presentConflict(h operation.Handoff) {
	fmt.Fprintln(os.Stderr)
	ui.PrintConflict(os.Stderr, h.Report)
}

// runOperation drives one operation through detail loading, confirmation and
// execution, then records the outcome in history.
func runOperation(ctx context.Context, kind operation.Kind, mgr manager.Manager, targets []string, extra ...operation.Option) error {
	if len(targets) == 0 && !kind.TargetsOptional() {
		return ErrNoPackages
	}

	opts := append([]operation.Option{
		operation.WithRunner(operation.NewRunner(exec)),
		operation.WithIndex(index),
		operation.WithLogger(logger),
	}, extra...)

	var (
		op  *operation.Operation
		err error
	)
	if cfg.Output.TUI {
		monitor := tui.NewMonitor()
		op = operation.New(kind, mgr, targets, append(opts, operation.WithObserver(monitor.Observe))...)
		err = monitor.Run(ctx, op, op.Snapshot(), cfg.General.AutoConfirm)
		if !errors.Is(err, tui.ErrCancelled) {
			reportOutcome(op.Snapshot(), true)
		}
	} else {
		printer := &outputPrinter{w: os.Stdout}
		op = operation.New(kind, mgr, targets, append(opts,
			operation.WithObserver(printer.observe),
			operation.WithConflictHandler(presentConflict),
		)...)
		err = runText(ctx, op, kind, mgr)
	}

	if errors.Is(err, tui.ErrCancelled) || errors.Is(err, ErrAborted) {
		return ErrAborted
	}
	if op.Phase().Terminal() && !cfg.General.DryRun {
		recordHistory(op.Snapshot(), mgr)
	}
	return err
}

// runText is the line-oriented flow: spinner while details load, a table and
// a prompt, then the tool's output echoed as it runs.
func runText(ctx context.Context, op *operation.Operation, kind operation.Kind, mgr manager.Manager) error {
	sp := ui.NewSpinner("Loading package information...")
	sp.Start()
	err := op.Load(ctx)
	sp.Stop()
	if err != nil {
		return err
	}

	snap := op.Snapshot()
	if len(snap.Targets) == 0 {
		ui.InfoMsg("%s using %s", progressVerb(kind, "all packages"), mgr.DisplayName())
	} else {
		ui.InfoMsg("%s using %s", progressVerb(kind, fmt.Sprintf("%d package(s)", len(snap.Targets))), mgr.DisplayName())
	}
	ui.PrintDetails(os.Stdout, snap.Details)
	if missing := len(snap.Targets) - len(snap.Details); missing > 0 {
		ui.WarningMsg("No information for %d package(s); the package tool will report them", missing)
	}

	if !cfg.General.AutoConfirm && !cfg.General.DryRun {
		confirmed, err := ui.Confirm(fmt.Sprintf("Proceed to %s?", kind), true)
		if err != nil || !confirmed {
			return ErrAborted
		}
	}

	err = op.Confirm()
	reportOutcome(op.Snapshot(), false)
	return err
}

// reportOutcome prints the terminal phase once the operation has ended.
// Failures are printed by Execute. The monitor leaves the alternate screen on
// exit, so a conflict shown there is printed again.
func reportOutcome(snap operation.Snapshot, fromMonitor bool) {
	switch snap.Phase {
	case operation.Complete:
		ui.SuccessMsg("%s", snap.Status)
		if cfg.General.DryRun {
			ui.MutedMsg("(dry run - no changes made)")
		}
	case operation.ConflictDetected:
		if fromMonitor && snap.Conflict != nil {
			ui.PrintConflict(os.Stderr, snap.Conflict)
		}
	}
}

func progressVerb(kind operation.Kind, subject string) string {
	switch kind {
	case operation.Remove:
		return "Removing " + subject
	case operation.Purge:
		return "Purging " + subject
	case operation.Upgrade:
		return "Upgrading " + subject
	case operation.Update:
		return "Refreshing package lists"
	}
	return "Installing " + subject
}

// recordHistory stores the operation outcome. Failures only reach the log.
func recordHistory(snap operation.Snapshot, mgr manager.Manager) {
	entry := history.NewEntry(history.OperationFor(snap.Kind), snap.Backend, snap.Targets)
	if p, ok := mgr.(*universal.Pikman); ok && p.Distro() != universal.DistroDefault {
		entry.Distro = p.Distro().String()
	}
	entry.Finish(snap)
	recordEntry(entry)
}

func recordEntry(entry *history.Entry) {
	store, err := history.OpenDefault()
	if err != nil {
		logger.Debug().Err(err).Msg("failed to open history")
		return
	}
	defer store.Close()

	if err := store.Record(entry); err != nil {
		logger.Debug().Err(err).Msg("failed to record history")
	}
}
