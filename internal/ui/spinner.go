package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner shows progress for work of unknown length on stderr.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	charSet := spinner.CharSets[14]
	if !UseUnicode {
		charSet = spinner.CharSets[9]
	}

	s := spinner.New(charSet, 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	if !color.NoColor {
		_ = s.Color("cyan")
	}
	return &Spinner{s: s}
}

func (sp *Spinner) Start() {
	sp.s.Start()
}

func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// Update replaces the spinner message.
func (sp *Spinner) Update(message string) {
	sp.s.Lock()
	sp.s.Suffix = " " + message
	sp.s.Unlock()
}

// Spin runs fn behind a spinner and returns its result.
func Spin[T any](message string, fn func() (T, error)) (T, error) {
	sp := NewSpinner(message)
	sp.Start()
	defer sp.Stop()
	return fn()
}
