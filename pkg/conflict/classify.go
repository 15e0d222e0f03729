// Package conflict classifies the output of failed install and remove
// operations into conflict categories.
package conflict

import (
	"regexp"
	"strings"
)

// Category is the kind of conflict a failed operation ran into.
type Category int

const (
	UnmetDependencies Category = iota
	PackageConflict
	HeldPackage
	RemovalBlocked
	BrokenDependencies
	Generic
)

func (c Category) String() string {
	switch c {
	case UnmetDependencies:
		return "unmet-dependencies"
	case PackageConflict:
		return "package-conflict"
	case HeldPackage:
		return "held-package"
	case RemovalBlocked:
		return "removal-blocked"
	case BrokenDependencies:
		return "broken-dependencies"
	default:
		return "generic"
	}
}

// Report describes a classified conflict.
type Report struct {
	Category   Category `json:"category" yaml:"category"`
	Summary    string   `json:"summary" yaml:"summary"`
	Details    string   `json:"details,omitempty" yaml:"details,omitempty"`
	Packages   []string `json:"packages,omitempty" yaml:"packages,omitempty"`
	Suggestion string   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

const (
	// maxBlockLines bounds the dependency block copied into a report.
	maxBlockLines = 16
	// excerptBefore and excerptAfter size the window around the first keyword line.
	excerptBefore = 1
	excerptAfter  = 8
)

var (
	unmetTriggers = []string{"unmet dependencies", "depends:", "could not satisfy dependencies", "breaks dependency"}
	blockStarts   = []string{"unmet dependencies", "the following packages", "depends:", "predepends:", "could not satisfy", "breaks dependency"}
	blockEnds     = []string{"you can run", "--fix-broken"}

	conflictTriggers  = []string{"conflicts with", "are in conflict"}
	heldTriggers      = []string{"held"}
	removalTriggers   = []string{"could not be removed", "cannot be removed", "cannot remove"}
	brokenTriggers    = []string{"broken packages", "dependency problems"}
	genericErrors     = []string{"error"}
	genericKeywords   = []string{"dependency", "conflict"}
	excerptFallbacks  = []string{"conflict", "held", "cannot", "error"}
	suggestUpgrade    = "Update your system first, then retry the operation"
	suggestFixBroken  = "Repair the package database (for example with 'apt --fix-broken install') and retry"
	suggestUnhold     = "Release the hold on the package (for example with 'apt-mark unhold') before changing it"
	suggestDependents = "Other installed packages depend on this package; remove them first or keep it installed"
)

// Regular expressions for extracting the affected package names.
var (
	// Matches: " vim : Depends: vim-runtime (= 2:9.1) but it is not going to be installed"
	aptDependsPattern = regexp.MustCompile(`(?m)^\s*(\S+)\s+:\s+(?:Pre)?Depends:`)

	// Matches: "dpkg: regarding foo.deb ...: foo conflicts with bar"
	aptConflictPattern = regexp.MustCompile(`(?m)(\S+) conflicts with (\S+)`)

	// Matches: ":: installing pkg (1.2.3-4) breaks dependency 'pkg=1.2.3-1' required by other-pkg"
	breaksDepPattern = regexp.MustCompile(`:: installing (\S+) .* breaks dependency .* required by (\S+)`)

	// Matches: ":: pkg and other-pkg are in conflict"
	pacmanConflictPattern = regexp.MustCompile(`:: (\S+) and (\S+) are in conflict`)
)

// Classify scans the combined output of a failed operation. The first
// matching category wins; nil means the failure is not a conflict.
func Classify(output string) *Report {
	if strings.TrimSpace(output) == "" {
		return nil
	}

	lower := strings.ToLower(output)
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")

	var r *Report
	switch {
	case containsAny(lower, unmetTriggers...):
		r = dependencyReport(lines)
	case containsAny(lower, conflictTriggers...):
		r = excerptReport(PackageConflict, "Package conflicts detected", lines, conflictTriggers)
		r.Suggestion = suggestUpgrade
	case containsAny(lower, heldTriggers...):
		r = excerptReport(HeldPackage, "Package is held and cannot be changed", lines, heldTriggers)
		r.Suggestion = suggestUnhold
	case containsAny(lower, removalTriggers...):
		r = excerptReport(RemovalBlocked, "Some packages could not be removed", lines, removalTriggers)
		r.Suggestion = suggestDependents
	case containsAny(lower, brokenTriggers...):
		r = excerptReport(BrokenDependencies, "Broken packages or dependency problems detected", lines, brokenTriggers)
		r.Suggestion = suggestFixBroken
	case containsAny(lower, genericErrors...) && containsAny(lower, genericKeywords...):
		r = excerptReport(Generic, "Dependency or conflict error detected", lines, genericKeywords)
	default:
		return nil
	}

	r.Packages = affectedPackages(output)
	return r
}

// dependencyReport copies the block starting at the first dependency header
// through a fix suggestion line, bounded by maxBlockLines.
func dependencyReport(lines []string) *Report {
	var block []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		if block == nil && !containsAny(lower, blockStarts...) {
			continue
		}
		block = append(block, line)
		if containsAny(lower, blockEnds...) || len(block) >= maxBlockLines {
			break
		}
	}

	r := &Report{Category: UnmetDependencies, Suggestion: suggestUpgrade}
	if len(block) == 0 {
		r.Summary = "Dependency conflict detected. Other packages depend on the selected packages."
		return r
	}
	r.Summary = "The following packages have unmet dependencies or dependency conflicts"
	r.Details = strings.TrimRight(strings.Join(block, "\n"), "\n ")
	return r
}

// excerptReport takes the lines around the first line mentioning one of
// keywords (or a generic error word), dropping blank lines.
func excerptReport(cat Category, summary string, lines []string, keywords []string) *Report {
	r := &Report{Category: cat, Summary: summary}

	at := -1
	for _, set := range [][]string{keywords, excerptFallbacks} {
		for i, line := range lines {
			if containsAny(strings.ToLower(line), set...) {
				at = i
				break
			}
		}
		if at >= 0 {
			break
		}
	}
	if at < 0 {
		return r
	}

	start := max(at-excerptBefore, 0)
	end := min(at+excerptAfter, len(lines))

	var excerpt []string
	for _, line := range lines[start:end] {
		if strings.TrimSpace(line) != "" {
			excerpt = append(excerpt, line)
		}
	}
	r.Details = strings.Join(excerpt, "\n")
	return r
}

func affectedPackages(output string) []string {
	seen := make(map[string]bool)
	var packages []string
	add := func(name string) {
		name = strings.Trim(name, "'\",:")
		if name != "" && !seen[name] {
			seen[name] = true
			packages = append(packages, name)
		}
	}

	for _, m := range aptDependsPattern.FindAllStringSubmatch(output, -1) {
		add(m[1])
	}
	for _, re := range []*regexp.Regexp{aptConflictPattern, breaksDepPattern, pacmanConflictPattern} {
		for _, m := range re.FindAllStringSubmatch(output, -1) {
			add(m[1])
			add(m[2])
		}
	}
	return packages
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
