// Package cli implements the command-line interface for birdnest.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"birdnest/internal/config"
	"birdnest/internal/executor"
	"birdnest/internal/logging"
	"birdnest/internal/ui"
	"birdnest/pkg/database"
	"birdnest/pkg/manager"
	"birdnest/pkg/manager/detector"
	"birdnest/pkg/manager/native"
	"birdnest/pkg/manager/universal"
	"birdnest/pkg/operation"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	source     string
	distroFlag string
	dryRun     bool
	yes        bool
	verbose    bool
	noColor    bool
	useTUI     bool
	outputFlag string

	// Global state
	cfg      *config.Config
	logger   zerolog.Logger
	exec     *executor.Executor
	registry *manager.Registry
	index    *database.Index
	pikman   *universal.Pikman
	flatpak  *universal.Flatpak
	format   ui.Format
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "birdnest",
	Short: "Front-end for apt, Flatpak and the pikman meta-manager",
	Long: `birdnest searches, installs and removes packages across the system
package tool (apt), Flatpak and pikman, which proxies AUR, Fedora and
Alpine packages.

Failed operations are inspected for dependency conflicts, held packages
and blocked removals, and explained instead of dumped.

Examples:
  birdnest search firefox                  # Search the system tool and Flatpak
  birdnest install vim git                 # Install with the system tool
  birdnest install org.gimp.GIMP -s flatpak
  birdnest install yay -s pikman --distro aur
  birdnest remove vim --tui                # Follow the operation full-screen`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "package source (system, apt, flatpak, pikman)")
	rootCmd.PersistentFlags().StringVar(&distroFlag, "distro", "", "pikman guest distribution (aur, fedora, alpine)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "follow install and remove operations in a full-screen monitor")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format (text, json, yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(autoremoveCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(upgradesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	reportError(err)
	return err
}

// reportError prints err unless it was already presented to the user.
func reportError(err error) {
	var conflictErr *operation.ConflictError
	switch {
	case err == nil:
	case errors.Is(err, ErrAborted):
		ui.MutedMsg("Aborted")
	case errors.As(err, &conflictErr):
		// the conflict report has been shown
	default:
		ui.ErrorMsg("%v", err)
	}
}

// initializeApp sets up the application state.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	if useTUI {
		cfg.Output.TUI = true
	}

	if format, err = ui.ParseFormat(outputFlag); err != nil {
		return err
	}

	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)

	level := cfg.Logging.Level
	if cfg.Output.Verbose {
		level = "debug"
	}
	logger = logging.NewLogger(logging.Config{
		Level:   level,
		LogFile: cfg.Logging.File,
		NoColor: !cfg.ShouldUseColor(),
	})

	exec = executor.New(cfg.General.DryRun, cfg.Output.Verbose)
	exec.SetElevator(executor.NewElevator(cfg.Elevation.GUIHelper, cfg.Elevation.TerminalHelper))
	exec.SetLogger(logger)

	registry = manager.NewRegistry()
	registerManagers()

	if err := registry.Detect(cfg.General.SystemTool); err != nil {
		// Non-fatal: explicit sources still work
		logger.Warn().Err(err).Msg("system detection failed")
	}

	cache := database.NewCache(afero.NewOsFs(), cfg.Cache.Path, cfg.Cache.StateFile)
	index = database.NewIndex(cache, exec)
	index.SetLogger(logger)

	return nil
}

// registerManagers registers the system tool candidates, Flatpak and pikman.
func registerManagers() {
	apt := native.NewAPT(exec)
	apt.SetLogger(logger)
	registry.Register(apt)

	pikman = universal.NewPikman(exec)
	pikman.SetLogger(logger)
	registry.Register(pikman)

	if cfg.General.FlatpakEnabled {
		flatpak = universal.NewFlatpak(cfg.Flatpak.DefaultRemote, exec)
		flatpak.SetLogger(logger)
		registry.Register(flatpak)
	}
}

// getManager resolves --source and --distro to a manager. A distro without a
// source selects pikman.
func getManager() (manager.Manager, error) {
	name := source
	if distroFlag != "" && name == "" {
		name = detector.ToolPikman
	}

	if name == "" || name == "system" {
		sys := registry.System()
		if sys == nil {
			return nil, ErrNoManager
		}
		return withDistro(sys)
	}

	mgr, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	if !mgr.IsAvailable() {
		return nil, fmt.Errorf("package manager '%s' is not available on this system", name)
	}
	return withDistro(mgr)
}

// withDistro applies --distro to pikman and rejects it for other managers.
func withDistro(mgr manager.Manager) (manager.Manager, error) {
	if distroFlag == "" {
		return mgr, nil
	}
	p, ok := mgr.(*universal.Pikman)
	if !ok {
		return nil, fmt.Errorf("--distro only applies to pikman, not %s", mgr.Name())
	}
	d, err := universal.ParseDistro(distroFlag)
	if err != nil {
		return nil, err
	}
	return p.WithDistro(d), nil
}

// resolvePackages resolves aliases in package names.
func resolvePackages(packages []string) []string {
	return cfg.ResolveAliases(packages)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print birdnest version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("birdnest version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
