package ui

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"birdnest/internal/history"
	"birdnest/pkg/conflict"
	"birdnest/pkg/database"
	"birdnest/pkg/manager"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var hits = []manager.Hit{
	{Manager: "apt", ID: "vim", Name: "vim", Version: "2:9.1", Description: "Vi IMproved", Source: "System"},
	{Manager: "flatpak", ID: "org.vim.Vim", Name: "GVim", Version: "9.1", Source: "Flatpak"},
	{Manager: "pikman", ID: "vim-git", Name: "vim-git", Source: "AUR"},
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", Truncate("éééééééé", 6))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestPrintHits(t *testing.T) {
	var buf bytes.Buffer
	PrintHits(&buf, hits, map[string]bool{"vim": true})

	out := buf.String()
	assert.Contains(t, out, "vim [installed]")
	assert.Contains(t, out, "org.vim.Vim")
	assert.Contains(t, out, "Vi IMproved")
	assert.Contains(t, out, "AUR")
	assert.NotContains(t, out, "vim-git [installed]")
}

func TestPrintHitsEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintHits(&buf, nil, nil)
	assert.Equal(t, "No packages found\n", buf.String())
}

func TestPrintInstalled(t *testing.T) {
	var buf bytes.Buffer
	PrintInstalled(&buf, []database.InstalledPackage{{Name: "bash", Version: "5.2"}, {Name: "nover"}})

	out := buf.String()
	assert.Contains(t, out, "bash")
	assert.Contains(t, out, "5.2")
	assert.Contains(t, out, "nover")
	assert.Contains(t, out, "-")
}

func TestPrintFlatpaks(t *testing.T) {
	var buf bytes.Buffer
	PrintFlatpaks(&buf, []manager.FlatpakRecord{{DisplayName: "Firefox", ApplicationID: "org.mozilla.firefox", Version: "128.0"}})

	out := buf.String()
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, "org.mozilla.firefox")
}

func TestPrintDetail(t *testing.T) {
	var buf bytes.Buffer
	PrintDetail(&buf, &manager.PackageDetail{Name: "vim", Version: "9.1", Size: "3.9 MB", Description: "editor"}, "apt")

	out := buf.String()
	assert.Contains(t, out, "Name: vim")
	assert.Contains(t, out, "Size: 3.9 MB")
	assert.Contains(t, out, "Source: apt")
}

func TestPrintConflict(t *testing.T) {
	var buf bytes.Buffer
	PrintConflict(&buf, &conflict.Report{
		Category:   conflict.HeldPackage,
		Summary:    "Held packages prevent the operation",
		Details:    "line one\nline two",
		Packages:   []string{"libc6"},
		Suggestion: "Unhold the package",
	})

	out := buf.String()
	assert.Contains(t, out, "Held packages prevent the operation")
	assert.Contains(t, out, "category: held-package")
	assert.Contains(t, out, "  line two\n")
	assert.Contains(t, out, "Affected: libc6")
	assert.Contains(t, out, "Unhold the package")
}

func TestPrintHistory(t *testing.T) {
	ok := history.NewEntry(history.OpInstall, "apt", []string{"vim"})
	ok.MarkSuccess()
	failed := history.NewEntry(history.OpRemove, "flatpak", []string{"org.gnome.Maps"})
	failed.Conflict = conflict.RemovalBlocked.String()

	var buf bytes.Buffer
	PrintHistory(&buf, []history.Entry{*ok, *failed})

	out := buf.String()
	assert.Contains(t, out, ok.ID)
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "conflict: removal-blocked")
	assert.Contains(t, out, "org.gnome.Maps")
}

func TestHitSearcher(t *testing.T) {
	search := hitSearcher(hits)

	assert.True(t, search("", 0))
	assert.True(t, search("vm", 0))
	assert.True(t, search("gvim", 1))
	assert.True(t, search("VIMGIT", 2))
	assert.False(t, search("emacs", 0))
}

func TestSelectHitShortCircuits(t *testing.T) {
	_, err := SelectHit(nil, "pick")
	assert.ErrorIs(t, err, ErrNothingToSelect)

	h, err := SelectHit(hits[:1], "pick")
	require.NoError(t, err)
	assert.Equal(t, "vim", h.ID)
}

func TestAnswer(t *testing.T) {
	assert.True(t, answer("", true))
	assert.False(t, answer("", false))
	assert.True(t, answer(" YES ", false))
	assert.True(t, answer("y", false))
	assert.False(t, answer("nope", true))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
	assert.True(t, FormatYAML.Structured())
	assert.False(t, FormatText.Structured())
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, hits[:1]))

	var decoded []manager.Hit
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, hits[:1], decoded)

	buf.Reset()
	require.NoError(t, Encode(&buf, FormatYAML, manager.PackageRecord{Name: "yay", Source: manager.SourceAUR}))
	var record map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "yay", record["name"])
	assert.Equal(t, "AUR", record["source"])

	assert.Error(t, Encode(&buf, FormatText, nil))
}
