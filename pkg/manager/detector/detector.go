// Package detector identifies the host distribution and picks the system package tool.
package detector

import (
	"os"
	"os/exec"
	"runtime"
)

const osReleasePath = "/etc/os-release"

// SystemInfo contains information about the detected system.
type SystemInfo struct {
	Arch         string
	Distribution string   // distribution ID (e.g., "debian", "pika")
	DistroFamily []string // related distributions from ID_LIKE
	PrettyName   string
	VersionID    string
}

// Detect reads the distribution from /etc/os-release.
func Detect() (*SystemInfo, error) {
	return DetectFrom(osReleasePath)
}

// DetectFrom reads the distribution from an os-release formatted file.
// A missing file yields an "unknown" distribution rather than an error.
func DetectFrom(path string) (*SystemInfo, error) {
	info := &SystemInfo{Arch: runtime.GOARCH}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		info.Distribution = "unknown"
		info.PrettyName = "Unknown Linux"
		return info, nil
	}
	if err != nil {
		return info, err
	}
	defer f.Close()

	release, err := ParseOSRelease(f)
	if err != nil {
		return info, err
	}
	info.Distribution = release.ID
	info.DistroFamily = release.IDLike
	info.PrettyName = release.PrettyName
	info.VersionID = release.VersionID
	return info, nil
}

// MatchesDistro checks the distribution ID and its ID_LIKE family.
func (s *SystemInfo) MatchesDistro(distros ...string) bool {
	for _, d := range distros {
		if s.Distribution == d {
			return true
		}
		for _, family := range s.DistroFamily {
			if family == d {
				return true
			}
		}
	}
	return false
}

// IsDebianFamily reports whether dpkg is the authoritative package database.
func (s *SystemInfo) IsDebianFamily() bool {
	return s.MatchesDistro("debian", "ubuntu")
}

// Tool names understood by SelectSystemTool.
const (
	ToolAuto   = "auto"
	ToolAPT    = "apt"
	ToolPikman = "pikman"
)

// SelectSystemTool returns the system tool to use for preference, or "" when
// none is installed. "auto" prefers pikman and falls back to apt.
func SelectSystemTool(preference string, installed func(string) bool) string {
	if installed == nil {
		installed = binaryInstalled
	}

	switch preference {
	case ToolAPT:
		if installed("apt-get") {
			return ToolAPT
		}
		return ""
	case ToolPikman:
		if installed(ToolPikman) {
			return ToolPikman
		}
		return ""
	}

	if installed(ToolPikman) {
		return ToolPikman
	}
	if installed("apt-get") {
		return ToolAPT
	}
	return ""
}

func binaryInstalled(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
