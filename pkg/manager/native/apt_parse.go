package native

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"birdnest/pkg/manager"
)

// aptBanners are lines apt tools print around real results.
var aptBanners = []string{
	"WARNING: apt does not have a stable CLI interface",
	"Sorting...",
	"Full Text Search...",
}

// ParseSearchOutput parses apt-cache search output ("name - description" or
// "name/version - description"). Duplicate names keep their first occurrence.
func ParseSearchOutput(output string) []manager.PackageRecord {
	b := manager.NewBuilder(func(r *manager.PackageRecord) bool {
		return manager.ValidName(r.Name)
	})
	seen := make(map[string]bool)
	skipping := false // inside a duplicate record

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		line := strings.TrimSpace(raw)

		if line == "" {
			b.Flush()
			skipping = false
			continue
		}
		if manager.HasAnyPrefix(line, aptBanners...) {
			continue
		}

		if !manager.IsIndented(raw) {
			if head, desc, ok := strings.Cut(line, " - "); ok && manager.ValidName(strings.TrimSpace(head)) {
				name, version, _ := strings.Cut(strings.TrimSpace(head), "/")
				if name == "" || seen[name] {
					b.Flush()
					skipping = true
					continue
				}
				seen[name] = true
				skipping = false
				b.Start(manager.PackageRecord{
					Name:        name,
					Version:     version,
					Description: strings.TrimSpace(desc),
					Source:      manager.SourceSystem,
				})
				continue
			}
		}

		if skipping || !manager.IsIndented(raw) {
			continue
		}
		if cur := b.Current(); cur != nil {
			cur.Description = manager.AppendText(cur.Description, line)
		}
	}

	return b.Records()
}

// ParseShowOutput parses the first stanza of apt-cache show or pikman show.
func ParseShowOutput(output string) *manager.PackageDetail {
	detail := &manager.PackageDetail{}

	scanner := bufio.NewScanner(strings.NewReader(output))
	inStanza := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if inStanza {
				break
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok || manager.IsIndented(line) {
			continue
		}
		inStanza = true
		value = strings.TrimSpace(value)

		switch key {
		case "Package":
			detail.Name = value
		case "Version":
			detail.Version = value
		case "Description", "Description-en":
			if detail.Description == "" {
				detail.Description = value
			}
		case "Installed-Size":
			detail.Size = FormatInstalledSize(value)
		}
	}

	if detail.Version == "" {
		detail.Version = manager.UnknownValue
	}
	if detail.Description == "" {
		detail.Description = manager.NoDescription
	}
	if detail.Size == "" {
		detail.Size = manager.UnknownValue
	}
	return detail
}

// FormatInstalledSize renders an Installed-Size value given in KB.
func FormatInstalledSize(kb string) string {
	kb = strings.TrimSpace(kb)
	if kb == "" {
		return ""
	}
	// apt show prints "12.3 MB" where apt-cache prints bare kilobytes
	if strings.ContainsAny(kb, " ") {
		return kb
	}

	n, err := strconv.ParseFloat(kb, 64)
	if err == nil && n >= 1024 {
		return fmt.Sprintf("%.2f MB", n/1024)
	}
	return kb + " KB"
}
