package cli

import (
	"os"

	"birdnest/internal/config"
	"birdnest/internal/ui"
	"birdnest/pkg/manager/detector"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose system issues",
	Long: `Check that the package tools, the elevation helper, the dpkg
database and birdnest's own cache and history are usable.

Examples:
  birdnest doctor               # Run diagnostics`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	issues := 0

	ui.HeaderMsg("System")
	if sysInfo := registry.SystemInfo(); sysInfo == nil {
		ui.ErrorMsg("System detection failed")
		issues++
	} else {
		ui.SuccessMsg("Detected %s (%s)", sysInfo.PrettyName, sysInfo.Arch)
	}

	if sys := registry.System(); sys == nil {
		ui.ErrorMsg("No system package tool found (install apt or pikman)")
		issues++
	} else {
		ui.SuccessMsg("System tool: %s", sys.DisplayName())
	}

	ui.HeaderMsg("Package Tools")
	for _, name := range []string{detector.ToolAPT, detector.ToolPikman, "flatpak"} {
		mgr, ok := registry.Get(name)
		switch {
		case !ok:
			ui.MutedMsg("%s is disabled", name)
		case mgr.IsAvailable():
			ui.SuccessMsg("%s is available", mgr.DisplayName())
		default:
			ui.MutedMsg("%s is not installed", mgr.DisplayName())
		}
	}

	ui.HeaderMsg("Privileges")
	elevator := exec.Elevator()
	switch {
	case elevator == nil || !elevator.CanElevate():
		ui.ErrorMsg("No elevation helper found; install and remove will fail")
		issues++
	case elevator.IsRoot():
		ui.SuccessMsg("Running as root")
	default:
		ui.SuccessMsg("Elevation helper: %s", elevator.Helper())
	}

	ui.HeaderMsg("Installed Packages")
	if _, err := os.Stat(index.StatePath()); err != nil {
		ui.WarningMsg("dpkg status file unavailable: %v", err)
		issues++
	} else {
		ui.SuccessMsg("dpkg status file: %s", index.StatePath())
	}
	if pkgs, ok := index.Cache().Load(); ok {
		ui.SuccessMsg("Cache is current (%d packages)", len(pkgs))
	} else {
		ui.MutedMsg("Cache is stale or missing; it is rebuilt on next use")
	}

	ui.HeaderMsg("Configuration")
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		ui.SuccessMsg("Config file: %s", config.ConfigPath())
	} else {
		ui.MutedMsg("No config file, using defaults (%s)", config.ConfigPath())
	}
	if store, err := openHistory(); err != nil {
		ui.WarningMsg("%v", err)
		issues++
	} else {
		n, _ := store.Count() //nolint:errcheck
		store.Close()
		ui.SuccessMsg("History: %d entries", n)
	}

	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found")
	} else {
		ui.WarningMsg("Found %d issue(s). Some features may not work correctly.", issues)
	}
	return nil
}
