package database

import (
	"bufio"
	"io"
	"strings"
)

// ParseStatus reads a dpkg status file. Paragraphs are separated by blank
// lines; a package is kept when the state word of its Status field (the last
// word) is "installed" or "config-files".
func ParseStatus(r io.Reader) ([]InstalledPackage, error) {
	var (
		pkgs      []InstalledPackage
		name      string
		version   string
		installed bool
	)

	flush := func() {
		if installed && name != "" {
			pkgs = append(pkgs, InstalledPackage{Name: name, Version: version})
		}
		name, version, installed = "", "", false
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case strings.HasPrefix(line, "Package:"):
			// a new Package field without a blank line still starts a new paragraph
			if name != "" {
				flush()
			}
			name = strings.TrimSpace(strings.TrimPrefix(line, "Package:"))
		case strings.HasPrefix(line, "Version:"):
			version = strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
		case strings.HasPrefix(line, "Status:"):
			installed = isInstalledState(strings.TrimPrefix(line, "Status:"))
		}
	}
	flush()

	return pkgs, scanner.Err()
}

func isInstalledState(status string) bool {
	words := strings.Fields(status)
	if len(words) == 0 {
		return false
	}
	switch words[len(words)-1] {
	case "installed", "config-files":
		return true
	}
	return false
}

// ParseQueryOutput parses `dpkg-query -W -f='${Package}\t${Version}\n'` output.
func ParseQueryOutput(output string) []InstalledPackage {
	var pkgs []InstalledPackage
	for _, line := range strings.Split(output, "\n") {
		name, version, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		pkgs = append(pkgs, InstalledPackage{Name: name, Version: strings.TrimSpace(version)})
	}
	return pkgs
}
