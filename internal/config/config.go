package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the complete birdnest configuration.
type Config struct {
	General   GeneralConfig     `toml:"general"`
	Output    OutputConfig      `toml:"output"`
	Cache     CacheConfig       `toml:"cache"`
	Elevation ElevationConfig   `toml:"elevation"`
	Flatpak   FlatpakConfig     `toml:"flatpak"`
	Logging   LoggingConfig     `toml:"logging"`
	Aliases   map[string]string `toml:"aliases"`
}

// GeneralConfig selects the system tool and the default run mode.
type GeneralConfig struct {
	// SystemTool is "auto" (pikman when installed, else apt), "apt" or "pikman".
	SystemTool     string `toml:"system_tool"`
	AutoConfirm    bool   `toml:"auto_confirm"`
	DryRun         bool   `toml:"dry_run"`
	FlatpakEnabled bool   `toml:"flatpak_enabled"`
}

// OutputConfig controls how results and operations are shown.
type OutputConfig struct {
	Color   bool `toml:"color"`
	Unicode bool `toml:"unicode"`
	Verbose bool `toml:"verbose"`
	// TUI follows install and remove in the full-screen monitor.
	TUI bool `toml:"tui"`
}

// CacheConfig locates the installed-package cache and the state file it is
// validated against.
type CacheConfig struct {
	Path      string `toml:"path"`
	StateFile string `toml:"state_file"`
}

// ElevationConfig names the helpers used to gain root privileges.
type ElevationConfig struct {
	// GUIHelper is used when a graphical session is present.
	GUIHelper string `toml:"gui_helper"`

	// TerminalHelper is used otherwise.
	TerminalHelper string `toml:"terminal_helper"`
}

// FlatpakConfig contains Flatpak settings.
type FlatpakConfig struct {
	// DefaultRemote is queried for applications that are not installed.
	DefaultRemote string `toml:"default_remote"`
}

// LoggingConfig contains diagnostic logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file exists. Fields missing
// from a file keep these values.
func Default() *Config {
	return &Config{
		General: GeneralConfig{SystemTool: "auto", FlatpakEnabled: true},
		Output:  OutputConfig{Color: true, Unicode: true},
		Cache:   CacheConfig{Path: CachePath(), StateFile: DefaultStateFile},
		Elevation: ElevationConfig{
			GUIHelper:      "pkexec",
			TerminalHelper: "sudo",
		},
		Flatpak: FlatpakConfig{DefaultRemote: "flathub"},
		Logging: LoggingConfig{Level: "warn", File: LogPath()},
		Aliases: make(map[string]string),
	}
}

// Load reads ConfigPath, falling back to Default when it does not exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the TOML file at path over the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	switch c.General.SystemTool {
	case "", "auto", "apt", "pikman":
	default:
		return fmt.Errorf("invalid general.system_tool %q (want auto, apt or pikman)", c.General.SystemTool)
	}
	return nil
}

// Save writes c to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes c as TOML to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ResolveAlias maps a user alias to its package name. Unknown names pass
// through.
func (c *Config) ResolveAlias(name string) string {
	if target, ok := c.Aliases[name]; ok && target != "" {
		return target
	}
	return name
}

// ResolveAliases applies ResolveAlias to every name.
func (c *Config) ResolveAliases(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, c.ResolveAlias(n))
	}
	return out
}

// ShouldUseColor reports whether output is colored. NO_COLOR wins over the
// config file.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
