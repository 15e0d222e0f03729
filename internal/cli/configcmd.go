package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"birdnest/internal/config"
	"birdnest/internal/ui"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if format.Structured() {
			return ui.Encode(os.Stdout, format, cfg)
		}
		ui.MutedMsg("# %s", configFilePath())
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if err := config.Default().SaveTo(path); err != nil {
			return err
		}
		ui.SuccessMsg("Wrote %s", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func configFilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}
