package history

import (
	"errors"
	"strings"
	"testing"
	"time"

	"birdnest/internal/executor"
	"birdnest/pkg/conflict"
	"birdnest/pkg/operation"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry(OpInstall, "apt", []string{"vim", "git"})

	if entry.ID == "" {
		t.Error("entry ID should not be empty")
	}
	if entry.Operation != OpInstall {
		t.Errorf("expected Operation install, got %s", entry.Operation)
	}
	if entry.Source != "apt" {
		t.Errorf("expected Source 'apt', got '%s'", entry.Source)
	}
	if len(entry.Packages) != 2 {
		t.Errorf("expected 2 packages, got %d", len(entry.Packages))
	}
	if entry.Success {
		t.Error("new entry should have Success = false")
	}
	if entry.Timestamp.IsZero() {
		t.Error("entry timestamp should be set")
	}
}

func TestOperationFor(t *testing.T) {
	if OperationFor(operation.Install) != OpInstall {
		t.Error("install kind should map to OpInstall")
	}
	if OperationFor(operation.Remove) != OpRemove {
		t.Error("remove kind should map to OpRemove")
	}
	if OperationFor(operation.Purge) != OpPurge {
		t.Error("purge kind should map to OpPurge")
	}
	if OperationFor(operation.Upgrade) != OpUpgrade {
		t.Error("upgrade kind should map to OpUpgrade")
	}
	if OperationFor(operation.Update) != OpUpdate {
		t.Error("update kind should map to OpUpdate")
	}
}

func TestEntryMarkFailed(t *testing.T) {
	entry := NewEntry(OpRemove, "flatpak", []string{"org.gimp.GIMP"})
	entry.MarkFailed(errors.New("boom"))

	if entry.Success {
		t.Error("MarkFailed() should set Success to false")
	}
	if entry.Error != "boom" {
		t.Errorf("expected error 'boom', got %q", entry.Error)
	}
	if entry.Outcome != "failed" {
		t.Errorf("expected outcome 'failed', got %q", entry.Outcome)
	}
}

func TestEntryFinish(t *testing.T) {
	tests := []struct {
		name     string
		snap     operation.Snapshot
		success  bool
		outcome  string
		conflict string
		status   string
	}{
		{
			name:    "complete",
			snap:    operation.Snapshot{Phase: operation.Complete},
			success: true,
			outcome: "complete",
			status:  "success",
		},
		{
			name: "conflict",
			snap: operation.Snapshot{
				Phase:    operation.ConflictDetected,
				ExitCode: 100,
				Conflict: &conflict.Report{Category: conflict.HeldPackage, Summary: "held"},
				Err:      errors.New("held"),
			},
			outcome:  "conflict",
			conflict: "held-package",
			status:   "conflict: held-package",
		},
		{
			name:    "auth",
			snap:    operation.Snapshot{Phase: operation.Failed, ExitCode: 126, Err: executor.ErrAuthCancelled},
			outcome: "failed",
			status:  "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry(OpInstall, "apt", []string{"vim"})
			entry.Finish(tt.snap)

			if entry.Success != tt.success {
				t.Errorf("Success = %v, want %v", entry.Success, tt.success)
			}
			if entry.Outcome != tt.outcome {
				t.Errorf("Outcome = %q, want %q", entry.Outcome, tt.outcome)
			}
			if entry.Conflict != tt.conflict {
				t.Errorf("Conflict = %q, want %q", entry.Conflict, tt.conflict)
			}
			if entry.Status() != tt.status {
				t.Errorf("Status() = %q, want %q", entry.Status(), tt.status)
			}
			if entry.ExitCode != tt.snap.ExitCode {
				t.Errorf("ExitCode = %d, want %d", entry.ExitCode, tt.snap.ExitCode)
			}
		})
	}
}

func TestReverseKind(t *testing.T) {
	tests := []struct {
		op   Operation
		kind operation.Kind
		ok   bool
	}{
		{OpInstall, operation.Remove, true},
		{OpRemove, operation.Install, true},
		{OpPurge, operation.Install, true},
		{OpAutoremove, 0, false},
		{OpUpgrade, 0, false},
		{OpUpdate, 0, false},
	}

	for _, tt := range tests {
		kind, ok := (&Entry{Operation: tt.op}).ReverseKind()
		if ok != tt.ok || (ok && kind != tt.kind) {
			t.Errorf("ReverseKind(%s) = %v, %v; want %v, %v", tt.op, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestCanRollback(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		expected bool
	}{
		{"successful install", Entry{Operation: OpInstall, Success: true, Packages: []string{"vim"}}, true},
		{"failed install", Entry{Operation: OpInstall, Success: false, Packages: []string{"vim"}}, false},
		{"no packages", Entry{Operation: OpRemove, Success: true}, false},
		{"autoremove", Entry{Operation: OpAutoremove, Success: true, Packages: []string{"x"}}, false},
		{"upgrade", Entry{Operation: OpUpgrade, Success: true, Packages: []string{"vim"}}, false},
		{"purge", Entry{Operation: OpPurge, Success: true, Packages: []string{"nginx"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.CanRollback(); got != tt.expected {
				t.Errorf("CanRollback() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	entry := &Entry{Timestamp: ts, Operation: OpInstall, Source: "pikman", Packages: []string{"yay", "paru"}, Success: true}
	want := "2024-01-15 10:30:00 install yay, paru [pikman] (success)"
	if got := entry.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	entry.Distro = "aur"
	want = "2024-01-15 10:30:00 install yay, paru [pikman/aur] (success)"
	if got := entry.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	empty := &Entry{Timestamp: ts, Operation: OpAutoremove}
	if got := empty.Summary(); !strings.HasSuffix(got, "autoremove (failed)") {
		t.Errorf("Summary() = %q", got)
	}
}
