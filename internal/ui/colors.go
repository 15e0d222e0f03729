// Package ui provides the terminal output helpers shared by the birdnest commands.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Muted   = color.New(color.FgHiBlack)

	PackageName    = color.New(color.FgWhite, color.Bold)
	PackageVersion = color.New(color.FgGreen)
	Installed      = color.New(color.FgGreen)
)

// sourceColors colors the source column by package universe.
var sourceColors = map[string]*color.Color{
	"System":  color.New(color.FgCyan),
	"Flatpak": color.New(color.FgBlue),
	"AUR":     color.New(color.FgMagenta),
	"Fedora":  color.New(color.FgHiBlue),
	"Alpine":  color.New(color.FgHiCyan),
}

// UseUnicode reports whether status symbols use unicode glyphs.
var UseUnicode = true

// Out is where messages are written. Errors and warnings go to ErrOut.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

var (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "!"
	SymbolInfo    = "→"
)

// Init applies the output settings from configuration and flags.
func Init(useColors, useUnicode bool) {
	UseUnicode = useUnicode

	if !useColors || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	if useUnicode {
		SymbolSuccess, SymbolError, SymbolWarning, SymbolInfo = "✓", "✗", "!", "→"
	} else {
		SymbolSuccess, SymbolError, SymbolWarning, SymbolInfo = "[OK]", "[ERROR]", "[WARN]", "->"
	}
}

func SuccessMsg(format string, args ...any) {
	Success.Fprintf(Out, SymbolSuccess+" "+format+"\n", args...)
}

func ErrorMsg(format string, args ...any) {
	Error.Fprintf(ErrOut, SymbolError+" "+format+"\n", args...)
}

func WarningMsg(format string, args ...any) {
	Warning.Fprintf(ErrOut, SymbolWarning+" "+format+"\n", args...)
}

func InfoMsg(format string, args ...any) {
	Info.Fprintf(Out, SymbolInfo+" "+format+"\n", args...)
}

// HeaderMsg prints a header preceded by a blank line.
func HeaderMsg(format string, args ...any) {
	Header.Fprintf(Out, "\n"+format+"\n", args...)
}

func MutedMsg(format string, args ...any) {
	Muted.Fprintf(Out, format+"\n", args...)
}

// Println prints a plain formatted line.
func Println(format string, args ...any) {
	fmt.Fprintf(Out, format+"\n", args...)
}

// Bold returns s in bold.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Source returns the source label colored by universe.
func Source(source string) string {
	if c, ok := sourceColors[source]; ok {
		return c.Sprint(source)
	}
	return source
}
