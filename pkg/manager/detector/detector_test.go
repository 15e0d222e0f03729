package detector

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const pikaRelease = `# PikaOS
NAME="PikaOS"
PRETTY_NAME="PikaOS 4"
ID=pika
ID_LIKE="ubuntu debian"
VERSION_ID="4"
`

func TestParseOSRelease(t *testing.T) {
	release, err := ParseOSRelease(strings.NewReader(pikaRelease))
	if err != nil {
		t.Fatalf("ParseOSRelease() error: %v", err)
	}

	if release.ID != "pika" {
		t.Errorf("expected ID 'pika', got %q", release.ID)
	}
	if len(release.IDLike) != 2 || release.IDLike[1] != "debian" {
		t.Errorf("unexpected ID_LIKE: %v", release.IDLike)
	}
	if release.PrettyName != "PikaOS 4" {
		t.Errorf("expected pretty name 'PikaOS 4', got %q", release.PrettyName)
	}
}

func TestDetectFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	if err := os.WriteFile(path, []byte(pikaRelease), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := DetectFrom(path)
	if err != nil {
		t.Fatalf("DetectFrom() error: %v", err)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("expected Arch %q, got %q", runtime.GOARCH, info.Arch)
	}
	if !info.IsDebianFamily() {
		t.Error("expected PikaOS to be in the Debian family")
	}
	if !info.MatchesDistro("pika") {
		t.Error("expected MatchesDistro(pika) to be true")
	}
}

func TestDetectFromMissingFile(t *testing.T) {
	info, err := DetectFrom(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("DetectFrom() error: %v", err)
	}
	if info.Distribution != "unknown" {
		t.Errorf("expected unknown distribution, got %q", info.Distribution)
	}
}

func TestSelectSystemTool(t *testing.T) {
	both := func(string) bool { return true }
	aptOnly := func(name string) bool { return name == "apt-get" }
	none := func(string) bool { return false }

	tests := []struct {
		name       string
		preference string
		installed  func(string) bool
		expected   string
	}{
		{"auto prefers pikman", ToolAuto, both, ToolPikman},
		{"auto falls back to apt", ToolAuto, aptOnly, ToolAPT},
		{"auto with nothing", ToolAuto, none, ""},
		{"explicit apt", ToolAPT, both, ToolAPT},
		{"explicit pikman missing", ToolPikman, aptOnly, ""},
		{"empty preference is auto", "", aptOnly, ToolAPT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectSystemTool(tt.preference, tt.installed); got != tt.expected {
				t.Errorf("SelectSystemTool(%q) = %q, want %q", tt.preference, got, tt.expected)
			}
		})
	}
}
