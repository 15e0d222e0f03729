// Package history records finished install and remove operations in BoltDB.
package history

import (
	"fmt"
	"strings"
	"time"

	"birdnest/pkg/operation"
)

// Operation represents the type of package operation.
type Operation string

const (
	OpInstall    Operation = "install"
	OpRemove     Operation = "remove"
	OpAutoremove Operation = "autoremove"
	OpPurge      Operation = "purge"
	OpUpgrade    Operation = "upgrade"
	OpUpdate     Operation = "update"
)

// OperationFor maps a state machine kind to its history operation.
func OperationFor(kind operation.Kind) Operation {
	switch kind {
	case operation.Remove:
		return OpRemove
	case operation.Purge:
		return OpPurge
	case operation.Upgrade:
		return OpUpgrade
	case operation.Update:
		return OpUpdate
	}
	return OpInstall
}

// Entry represents a single operation in the history.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Operation Operation `json:"operation" yaml:"operation"`
	Source    string    `json:"source" yaml:"source"` // Package manager used
	Distro    string    `json:"distro,omitempty" yaml:"distro,omitempty"`
	Packages  []string  `json:"packages" yaml:"packages"` // Packages affected
	Success   bool      `json:"success" yaml:"success"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`

	// Outcome is the terminal phase: complete, conflict or failed.
	Outcome  string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	ExitCode int    `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Conflict string `json:"conflict,omitempty" yaml:"conflict,omitempty"`
}

// NewEntry creates a new history entry.
func NewEntry(op Operation, source string, packages []string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: op,
		Source:    source,
		Packages:  packages,
		Success:   false, // Will be updated after operation completes
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
	e.Outcome = operation.Complete.String()
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	e.Outcome = operation.Failed.String()
	if err != nil {
		e.Error = err.Error()
	}
}

// Finish copies the terminal state of an operation into the entry.
func (e *Entry) Finish(snap operation.Snapshot) {
	e.Outcome = snap.Phase.String()
	e.ExitCode = snap.ExitCode
	e.Success = snap.Phase == operation.Complete
	if snap.Err != nil {
		e.Error = snap.Err.Error()
	}
	if snap.Conflict != nil {
		e.Conflict = snap.Conflict.Category.String()
	}
}

// Origin names the manager, qualified by the pikman distro when one was used.
func (e *Entry) Origin() string {
	if e.Distro == "" {
		return e.Source
	}
	return e.Source + "/" + e.Distro
}

// generateID generates a unique ID for the entry.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}

// reverseOperation returns the operation that would reverse this one.
func reverseOperation(op Operation) Operation {
	switch op {
	case OpInstall:
		return OpRemove
	case OpRemove, OpPurge:
		return OpInstall
	}
	return ""
}

// ReverseKind returns the state machine kind that undoes this entry.
func (e *Entry) ReverseKind() (operation.Kind, bool) {
	switch reverseOperation(e.Operation) {
	case OpInstall:
		return operation.Install, true
	case OpRemove:
		return operation.Remove, true
	}
	return 0, false
}

// CanRollback returns true if this operation can be rolled back.
func (e *Entry) CanRollback() bool {
	return reverseOperation(e.Operation) != "" && e.Success && len(e.Packages) > 0
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Status returns the outcome shown in listings.
func (e *Entry) Status() string {
	switch {
	case e.Success:
		return "success"
	case e.Conflict != "":
		return "conflict: " + e.Conflict
	default:
		return "failed"
	}
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	if len(e.Packages) == 0 {
		return fmt.Sprintf("%s %s (%s)", e.FormatTime(), e.Operation, e.Status())
	}
	return fmt.Sprintf("%s %s %s [%s] (%s)",
		e.FormatTime(), e.Operation, strings.Join(e.Packages, ", "), e.Origin(), e.Status())
}
