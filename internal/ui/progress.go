package ui

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar counts completed items of a known total on stderr.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a bar for max items.
func NewProgressBar(max int, description string) *ProgressBar {
	bar := progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Add advances the bar by n items.
func (p *ProgressBar) Add(n int) error {
	return p.bar.Add(n)
}

// Describe changes the description.
func (p *ProgressBar) Describe(description string) {
	p.bar.Describe(description)
}

func (p *ProgressBar) Finish() error {
	return p.bar.Finish()
}
