package ui

import (
	"fmt"
	"io"
	"strings"

	"birdnest/internal/history"
	"birdnest/pkg/conflict"
	"birdnest/pkg/database"
	"birdnest/pkg/manager"
	"birdnest/pkg/manager/detector"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const maxDescription = 60

// newTable builds a borderless, left-aligned table.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PrintHits prints search results. installed marks hits by ID.
func PrintHits(w io.Writer, hits []manager.Hit, installed map[string]bool) {
	if len(hits) == 0 {
		Muted.Fprintln(w, "No packages found")
		return
	}

	table := newTable(w, "Source", "Name", "Version", "Description")
	for _, h := range hits {
		name := PackageName.Sprint(h.ID)
		if installed[h.ID] {
			name += " " + Installed.Sprint("[installed]")
		}
		table.Append(
			Source(h.Source),
			name,
			PackageVersion.Sprint(orDash(h.Version)),
			Truncate(h.Description, maxDescription),
		)
	}
	table.Render()
}

// PrintInstalled prints system packages from the installed-package index.
func PrintInstalled(w io.Writer, pkgs []database.InstalledPackage) {
	if len(pkgs) == 0 {
		Muted.Fprintln(w, "No packages installed")
		return
	}

	table := newTable(w, "Name", "Version")
	for _, p := range pkgs {
		table.Append(p.Name, PackageVersion.Sprint(orDash(p.Version)))
	}
	table.Render()
}

// PrintFlatpaks prints installed Flatpak applications.
func PrintFlatpaks(w io.Writer, apps []manager.FlatpakRecord) {
	if len(apps) == 0 {
		Muted.Fprintln(w, "No Flatpak applications installed")
		return
	}

	table := newTable(w, "Name", "Application ID", "Version")
	for _, a := range apps {
		table.Append(a.DisplayName, a.ApplicationID, PackageVersion.Sprint(orDash(a.Version)))
	}
	table.Render()
}

// PrintDetails prints the packages an operation is about to act on.
func PrintDetails(w io.Writer, details []manager.PackageDetail) {
	table := newTable(w, "Package", "Version", "Size", "Description")
	for _, d := range details {
		table.Append(
			PackageName.Sprint(d.Name),
			PackageVersion.Sprint(d.Version),
			d.Size,
			Truncate(d.Description, maxDescription),
		)
	}
	table.Render()
}

// PrintDetail prints one package's information as labelled fields.
func PrintDetail(w io.Writer, d *manager.PackageDetail, source string) {
	fmt.Fprintln(w, Header.Sprint("Package Information"))
	printField(w, "Name", d.Name)
	printField(w, "Version", d.Version)
	printField(w, "Source", source)
	printField(w, "Size", d.Size)
	printField(w, "Description", d.Description)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s: %s\n", Info.Sprint(label), value)
}

// PrintConflict prints a classified conflict with the packages it names.
func PrintConflict(w io.Writer, r *conflict.Report) {
	Warning.Fprintf(w, "%s %s\n", SymbolWarning, r.Summary)
	Muted.Fprintf(w, "  category: %s\n", r.Category)
	if r.Details != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(r.Details, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if len(r.Packages) > 0 {
		fmt.Fprintln(w)
		printField(w, "Affected", strings.Join(r.Packages, ", "))
	}
	if r.Suggestion != "" {
		fmt.Fprintln(w)
		Info.Fprintf(w, "%s %s\n", SymbolInfo, r.Suggestion)
	}
}

// PrintHistory prints recorded operations, newest first.
func PrintHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		Muted.Fprintln(w, "No operations recorded")
		return
	}

	table := newTable(w, "ID", "Time", "Operation", "Source", "Packages", "Status")
	for _, e := range entries {
		status := e.Status()
		switch {
		case e.Success:
			status = Success.Sprint(status)
		case e.Conflict != "":
			status = Warning.Sprint(status)
		default:
			status = Error.Sprint(status)
		}
		table.Append(
			Muted.Sprint(e.ID),
			e.FormatTime(),
			string(e.Operation),
			e.Origin(),
			Truncate(strings.Join(e.Packages, ", "), 40),
			status,
		)
	}
	table.Render()
}

// PrintSystemInfo prints the detected distribution and package tools.
func PrintSystemInfo(w io.Writer, info *detector.SystemInfo, systemTool string, available []string) {
	fmt.Fprintln(w, Header.Sprint("System Information"))
	if info != nil {
		printField(w, "Distribution", orDash(info.PrettyName))
		printField(w, "ID", orDash(info.Distribution))
		if info.VersionID != "" {
			printField(w, "Version", info.VersionID)
		}
		if len(info.DistroFamily) > 0 {
			printField(w, "Based on", strings.Join(info.DistroFamily, ", "))
		}
		printField(w, "Architecture", info.Arch)
	}
	printField(w, "System tool", orDash(systemTool))
	printField(w, "Available", orDash(strings.Join(available, ", ")))
}
