package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(t *testing.T, store *Store, op Operation, pkgs ...string) *Entry {
	t.Helper()
	entry := NewEntry(op, "apt", pkgs)
	entry.MarkSuccess()
	require.NoError(t, store.Record(entry))
	time.Sleep(time.Millisecond)
	return entry
}

func TestOpenDefaultUsesDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := OpenDefault()
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestRecordAndCount(t *testing.T) {
	store := openTestStore(t)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	record(t, store, OpInstall, "vim", "git")

	count, err = store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		record(t, store, OpInstall, name)
	}

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, []string{"e"}, entries[0].Packages)
	assert.Equal(t, []string{"a"}, entries[4].Packages)

	limited, err := store.List(3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestGet(t *testing.T) {
	store := openTestStore(t)
	entry := record(t, store, OpInstall, "vim")

	got, err := store.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "complete", got.Outcome)

	_, err = store.Get("nonexistent")
	assert.Error(t, err)
}

func TestLast(t *testing.T) {
	store := openTestStore(t)

	last, err := store.Last()
	require.NoError(t, err)
	assert.Nil(t, last)

	record(t, store, OpInstall, "vim")
	second := record(t, store, OpRemove, "git")

	last, err = store.Last()
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)
}

func TestLastReversible(t *testing.T) {
	store := openTestStore(t)

	install := record(t, store, OpInstall, "vim")
	record(t, store, OpAutoremove)

	failed := NewEntry(OpRemove, "apt", []string{"git"})
	failed.MarkFailed(assert.AnError)
	require.NoError(t, store.Record(failed))

	got, err := store.LastReversible()
	require.NoError(t, err)
	assert.Equal(t, install.ID, got.ID)
}

func TestLastReversibleEmpty(t *testing.T) {
	_, err := openTestStore(t).LastReversible()
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	record(t, store, OpInstall, "a")
	record(t, store, OpInstall, "b")

	require.NoError(t, store.Clear())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)

	old := &Entry{
		ID:        "old-entry",
		Timestamp: time.Now().Add(-48 * time.Hour),
		Operation: OpInstall,
		Source:    "apt",
		Packages:  []string{"old-pkg"},
		Success:   true,
	}
	require.NoError(t, store.Record(old))
	fresh := record(t, store, OpInstall, "new-pkg")

	deleted, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}
