package universal

import (
	"bufio"
	"strings"

	"birdnest/pkg/manager"
)

// ParseFlatpakSearch parses flatpak search output. Lines with at least three
// tab-separated fields (name, description, application ID, version, ...) start
// a record; any other non-blank line continues the previous description.
func ParseFlatpakSearch(output string) []manager.FlatpakRecord {
	b := manager.NewBuilder(keepApp)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			b.Flush()
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(raw), "No matches found") {
			continue
		}

		fields := strings.Split(raw, "\t")
		if len(fields) >= 3 {
			if strings.TrimSpace(fields[2]) == "Application ID" {
				continue
			}
			rec := manager.FlatpakRecord{
				DisplayName:   strings.TrimSpace(fields[0]),
				Description:   strings.TrimSpace(fields[1]),
				ApplicationID: strings.TrimSpace(fields[2]),
			}
			if len(fields) > 3 {
				rec.Version = strings.TrimSpace(fields[3])
			}
			b.Start(rec)
			continue
		}

		if cur := b.Current(); cur != nil {
			cur.Description = manager.AppendText(cur.Description, raw)
		}
	}

	return b.Records()
}

// ParseFlatpakList parses `flatpak list --columns=name,application` output.
func ParseFlatpakList(output string) []manager.FlatpakRecord {
	var records []manager.FlatpakRecord

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) < 2 {
			continue
		}

		rec := manager.FlatpakRecord{
			DisplayName:   strings.TrimSpace(fields[0]),
			ApplicationID: strings.TrimSpace(fields[1]),
		}
		if keepApp(&rec) {
			records = append(records, rec)
		}
	}

	return records
}

// keepApp drops records without an application ID and fills a missing display name.
func keepApp(rec *manager.FlatpakRecord) bool {
	if rec.ApplicationID == "" || rec.ApplicationID == "Application ID" {
		return false
	}
	if rec.DisplayName == "" {
		rec.DisplayName = rec.ApplicationID
	}
	return true
}

// ParseFlatpakInfo parses flatpak info or remote-info output. The first line
// without a colon is "Name - Description".
func ParseFlatpakInfo(output string) *manager.PackageDetail {
	detail := &manager.PackageDetail{}
	var installed, download string

	first := true
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if first && !strings.Contains(line, ":") {
			first = false
			if name, desc, ok := strings.Cut(line, " - "); ok {
				detail.Name = strings.TrimSpace(name)
				detail.Description = strings.TrimSpace(desc)
			} else {
				detail.Description = line
			}
			continue
		}
		first = false

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Version":
			detail.Version = value
		case "Description":
			if detail.Description == "" {
				detail.Description = value
			}
		case "Installed size", "Installed":
			installed = value
		case "Download size", "Download":
			download = value
		}
	}

	switch {
	case installed != "":
		detail.Size = installed
	case download != "":
		detail.Size = "Download: " + download
	default:
		detail.Size = manager.UnknownValue
	}
	if detail.Version == "" {
		detail.Version = manager.UnknownValue
	}
	if detail.Description == "" {
		detail.Description = manager.NoDescription
	}
	return detail
}
