package cli

import (
	"os"

	"birdnest/internal/ui"
	"birdnest/pkg/manager/detector"

	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:     "system",
	Aliases: []string{"sysinfo"},
	Short:   "Show system and package tool information",
	RunE:    runSystem,
}

type systemReport struct {
	System     *detector.SystemInfo `json:"system" yaml:"system"`
	SystemTool string               `json:"system_tool" yaml:"system_tool"`
	Available  []string             `json:"available" yaml:"available"`
	CachePath  string               `json:"cache_path" yaml:"cache_path"`
}

func runSystem(cmd *cobra.Command, args []string) error {
	report := systemReport{
		System:    registry.SystemInfo(),
		CachePath: index.Cache().Path(),
	}
	if sys := registry.System(); sys != nil {
		report.SystemTool = sys.Name()
	}
	for _, m := range registry.Available() {
		report.Available = append(report.Available, m.Name())
	}

	if format.Structured() {
		return ui.Encode(os.Stdout, format, report)
	}
	ui.PrintSystemInfo(os.Stdout, report.System, report.SystemTool, report.Available)
	return nil
}
