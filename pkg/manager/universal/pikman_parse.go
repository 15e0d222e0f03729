package universal

import (
	"bufio"
	"strings"
	"unicode"

	"birdnest/pkg/manager"
)

// pikmanBanners are status lines pikman and the guest tools print between results.
var pikmanBanners = []string{"Matched fields:", "!!!", "Warning:"}

// fedoraBanners are the extra dnf status lines seen in --fedora output.
var fedoraBanners = []string{"Updating", "Last metadata expiration", "===="}

// ParsePikmanSearch parses pikman search output in the dialect selected by d.
func ParsePikmanSearch(output string, d Distro) []manager.PackageRecord {
	switch d {
	case DistroAUR:
		return parseAUR(output)
	case DistroFedora:
		return parseFedora(output)
	case DistroAlpine:
		return parseAlpine(output)
	default:
		return parseDefault(output)
	}
}

func keepRecord(r *manager.PackageRecord) bool {
	return manager.ValidName(r.Name)
}

// lines yields each raw line (carriage returns removed) with its trimmed form.
func lines(output string, fn func(raw, line string)) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		fn(raw, strings.TrimSpace(raw))
	}
}

// isHeader reports whether an unindented line starts with a repo/name token.
func isHeader(raw, line string) bool {
	if manager.IsIndented(raw) {
		return false
	}
	head, _, _ := strings.Cut(line, " ")
	return strings.Contains(head, "/")
}

// parseDefault handles "name/version description" with continuation lines.
func parseDefault(output string) []manager.PackageRecord {
	b := manager.NewBuilder(keepRecord)

	lines(output, func(raw, line string) {
		switch {
		case line == "":
			b.Flush()
		case manager.HasAnyPrefix(line, pikmanBanners...):
		case isHeader(raw, line):
			head, desc, _ := strings.Cut(line, " ")
			name, version, _ := strings.Cut(head, "/")
			b.Start(manager.PackageRecord{
				Name:        name,
				Version:     version,
				Description: strings.TrimSpace(desc),
				Source:      manager.SourceSystem,
			})
		case b.Current() != nil:
			b.Current().Description = manager.AppendText(b.Current().Description, line)
		}
	})

	return b.Records()
}

// parseAUR handles "repo/name version (download installed) [status]" headers
// followed by indented description lines.
func parseAUR(output string) []manager.PackageRecord {
	b := manager.NewBuilder(keepRecord)

	lines(output, func(raw, line string) {
		switch {
		case line == "":
			b.Flush()
		case manager.HasAnyPrefix(line, pikmanBanners...):
		case isHeader(raw, line):
			head, rest, _ := strings.Cut(line, " ")
			_, name, _ := strings.Cut(head, "/")
			version, size := splitAURVersion(strings.TrimSpace(rest))
			b.Start(manager.PackageRecord{
				Name:    name,
				Version: version,
				Size:    size,
				Source:  manager.SourceAUR,
			})
		case manager.IsIndented(raw) && b.Current() != nil:
			b.Current().Description = manager.AppendText(b.Current().Description, line)
		}
	})

	return b.Records()
}

// splitAURVersion takes "1.2-1 (12K 40K) [installed]" apart into version and size.
func splitAURVersion(rest string) (version, size string) {
	open := strings.Index(rest, "(")
	if open < 0 {
		version, _, _ = strings.Cut(rest, "[")
		return strings.TrimSpace(version), ""
	}

	version = strings.TrimSpace(rest[:open])
	inner := rest[open+1:]
	if end := strings.Index(inner, ")"); end >= 0 {
		inner = inner[:end]
	}

	tokens := strings.Fields(inner)
	switch {
	case len(tokens) >= 2:
		size = tokens[0] + " / " + tokens[1]
	case len(tokens) == 1:
		size = tokens[0]
	}
	return version, size
}

// parseFedora handles "name.arch<sep>description". The format carries no
// version, so records never get one.
func parseFedora(output string) []manager.PackageRecord {
	b := manager.NewBuilder(keepRecord)

	lines(output, func(raw, line string) {
		switch {
		case line == "":
			b.Flush()
		case manager.HasAnyPrefix(line, pikmanBanners...), manager.HasAnyPrefix(line, fedoraBanners...):
		case manager.IsIndented(raw):
			if b.Current() != nil {
				b.Current().Description = manager.AppendText(b.Current().Description, strings.TrimPrefix(line, ": "))
			}
		default:
			var nameArch, desc string
			if strings.Contains(line, "\t") {
				nameArch, desc, _ = strings.Cut(line, "\t")
			} else {
				fields := strings.Fields(line)
				nameArch, desc = fields[0], strings.Join(fields[1:], " ")
			}

			name := strings.TrimSpace(nameArch)
			if dot := strings.LastIndex(name, "."); dot >= 0 {
				name = name[:dot]
			}

			desc = strings.TrimSpace(desc)
			desc = strings.TrimSpace(strings.TrimPrefix(desc, ":"))
			b.Start(manager.PackageRecord{
				Name:        name,
				Description: desc,
				Source:      manager.SourceFedora,
			})
		}
	})

	return b.Records()
}

// parseAlpine handles bare "name-version" tokens. The version is guessed as
// the last dash segment when it contains a digit, so "musl-1.2.4-r2" yields
// name "musl-1.2.4" and version "r2". This is a best-effort split.
func parseAlpine(output string) []manager.PackageRecord {
	b := manager.NewBuilder(keepRecord)

	lines(output, func(raw, line string) {
		switch {
		case line == "":
			b.Flush()
		case manager.HasAnyPrefix(line, pikmanBanners...):
		default:
			token, rest, _ := strings.Cut(line, " ")
			name, version := SplitAlpineToken(token)
			b.Start(manager.PackageRecord{
				Name:        name,
				Version:     version,
				Description: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "- ")),
				Source:      manager.SourceAlpine,
			})
		}
	})

	return b.Records()
}

// SplitAlpineToken splits "name-version" at the last dash when the trailing
// segment contains a digit; otherwise the whole token is the name.
func SplitAlpineToken(token string) (name, version string) {
	dash := strings.LastIndex(token, "-")
	if dash <= 0 || dash == len(token)-1 {
		return token, ""
	}

	tail := token[dash+1:]
	if strings.IndexFunc(tail, unicode.IsDigit) < 0 {
		return token, ""
	}
	return token[:dash], tail
}
