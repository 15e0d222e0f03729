package cli

import (
	"bytes"
	"context"
	"testing"

	"birdnest/internal/executor"
	"birdnest/pkg/database"
	"birdnest/pkg/manager"
	"birdnest/pkg/manager/native"
	"birdnest/pkg/manager/universal"
	"birdnest/pkg/operation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPrinterPrintsOnlyNewOutput(t *testing.T) {
	var buf bytes.Buffer
	p := &outputPrinter{w: &buf}

	p.observe(operation.Snapshot{Output: "Reading package lists...\n"})
	p.observe(operation.Snapshot{Output: "Reading package lists...\n"})
	p.observe(operation.Snapshot{Output: "Reading package lists...\nDone\n"})

	assert.Equal(t, "Reading package lists...\nDone\n", buf.String())
}

func TestFilterPackages(t *testing.T) {
	pkgs := []database.InstalledPackage{
		{Name: "libc6", Version: "2.36"},
		{Name: "vim", Version: "9.0"},
		{Name: "libssl3", Version: "3.0"},
	}

	assert.Len(t, filterPackages(pkgs, ""), 3)

	got := filterPackages(pkgs, "LIB")
	require.Len(t, got, 2)
	assert.Equal(t, "libc6", got[0].Name)
	assert.Equal(t, "libssl3", got[1].Name)

	assert.Empty(t, filterPackages(pkgs, "emacs"))
}

func TestFilterApps(t *testing.T) {
	apps := []manager.FlatpakRecord{
		{DisplayName: "GIMP", ApplicationID: "org.gimp.GIMP"},
		{DisplayName: "Firefox", ApplicationID: "org.mozilla.firefox"},
	}

	got := filterApps(apps, "gimp")
	require.Len(t, got, 1)
	assert.Equal(t, "org.gimp.GIMP", got[0].ApplicationID)

	got = filterApps(apps, "fire")
	require.Len(t, got, 1)
	assert.Equal(t, "Firefox", got[0].DisplayName)
}

func TestLimit(t *testing.T) {
	items := []int{1, 2, 3, 4}
	assert.Equal(t, []int{1, 2}, limit(items, 2))
	assert.Equal(t, items, limit(items, 0))
	assert.Equal(t, items, limit(items, 10))
}

func TestTracksDpkg(t *testing.T) {
	exec := executor.New(true, false)
	p := universal.NewPikman(exec)

	assert.True(t, tracksDpkg(native.NewAPT(exec)))
	assert.True(t, tracksDpkg(p))
	assert.False(t, tracksDpkg(p.WithDistro(universal.DistroAUR)))
	assert.False(t, tracksDpkg(universal.NewFlatpak("flathub", exec)))
}

func TestWithDistro(t *testing.T) {
	exec := executor.New(true, false)
	p := universal.NewPikman(exec)

	t.Cleanup(func() { distroFlag = "" })

	distroFlag = ""
	mgr, err := withDistro(p)
	require.NoError(t, err)
	assert.Same(t, p, mgr)

	distroFlag = "fedora"
	mgr, err = withDistro(p)
	require.NoError(t, err)
	guest, ok := mgr.(*universal.Pikman)
	require.True(t, ok)
	assert.Equal(t, universal.DistroFedora, guest.Distro())
	assert.Equal(t, universal.DistroDefault, p.Distro(), "original manager is unchanged")

	_, err = withDistro(native.NewAPT(exec))
	assert.Error(t, err)

	distroFlag = "gentoo"
	_, err = withDistro(p)
	assert.Error(t, err)
}

func TestGetManagerUnknownSource(t *testing.T) {
	registry = manager.NewRegistry()
	t.Cleanup(func() {
		registry = nil
		source = ""
	})

	source = "snap"
	_, err := getManager()
	assert.ErrorIs(t, err, ErrSourceNotFound)

	source = ""
	_, err = getManager()
	assert.ErrorIs(t, err, ErrNoManager)
}

func TestRunOperationNeedsTargets(t *testing.T) {
	for _, kind := range []operation.Kind{operation.Install, operation.Remove, operation.Purge} {
		err := runOperation(context.Background(), kind, nil, nil)
		assert.ErrorIs(t, err, ErrNoPackages, kind.String())
	}
}

func TestProgressVerb(t *testing.T) {
	assert.Equal(t, "Installing 2 package(s)", progressVerb(operation.Install, "2 package(s)"))
	assert.Equal(t, "Purging 1 package(s)", progressVerb(operation.Purge, "1 package(s)"))
	assert.Equal(t, "Upgrading all packages", progressVerb(operation.Upgrade, "all packages"))
	assert.Equal(t, "Refreshing package lists", progressVerb(operation.Update, "all packages"))
}
