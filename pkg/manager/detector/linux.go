package detector

import (
	"bufio"
	"io"
	"strings"
)

// OSRelease holds the fields of os-release(5) this program uses.
type OSRelease struct {
	ID         string
	IDLike     []string
	VersionID  string
	PrettyName string
	Name       string
}

// ParseOSRelease parses KEY=value lines, unquoting values and ignoring comments.
func ParseOSRelease(r io.Reader) (*OSRelease, error) {
	release := &OSRelease{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch strings.TrimSpace(key) {
		case "ID":
			release.ID = value
		case "ID_LIKE":
			release.IDLike = strings.Fields(value)
		case "VERSION_ID":
			release.VersionID = value
		case "PRETTY_NAME":
			release.PrettyName = value
		case "NAME":
			release.Name = value
		}
	}

	if release.PrettyName == "" {
		release.PrettyName = release.Name
	}
	return release, scanner.Err()
}
