// Package operation drives a single package operation (install, remove,
// purge, upgrade or list refresh) from detail loading through confirmation,
// streamed execution and conflict classification.
package operation

import "strings"

// Phase is the state of an Operation.
type Phase int

const (
	Idle Phase = iota
	Loading
	Confirming
	Executing
	StreamingOutput
	Complete
	ConflictDetected
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Confirming:
		return "confirming"
	case Executing:
		return "executing"
	case StreamingOutput:
		return "streaming"
	case Complete:
		return "complete"
	case ConflictDetected:
		return "conflict"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave p.
func (p Phase) Terminal() bool {
	return p == Complete || p == ConflictDetected || p == Failed
}

// Kind is what an Operation does to its targets.
type Kind int

const (
	Install Kind = iota
	Remove
	Purge
	Upgrade
	Update
)

var kindNames = map[Kind]string{
	Install: "install",
	Remove:  "remove",
	Purge:   "purge",
	Upgrade: "upgrade",
	Update:  "update",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "install"
}

// Title is the capitalised verb used in headers.
func (k Kind) Title() string {
	name := k.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// TargetsOptional reports whether the kind may run without named packages:
// update refreshes the package lists and upgrade then covers everything.
func (k Kind) TargetsOptional() bool {
	return k == Update || k == Upgrade
}

// ChangesInstalled reports whether a run can change the installed set.
func (k Kind) ChangesInstalled() bool {
	return k != Update
}

// progressStatus is the status shown while the command runs.
func (k Kind) progressStatus() string {
	switch k {
	case Remove, Purge:
		return "Removing packages..."
	case Upgrade:
		return "Upgrading packages..."
	case Update:
		return "Refreshing package lists..."
	}
	return "Installing packages..."
}

// doneStatus is the status shown after a successful run.
func (k Kind) doneStatus() string {
	switch k {
	case Remove:
		return "Removal complete!"
	case Purge:
		return "Purge complete!"
	case Upgrade:
		return "Upgrade complete!"
	case Update:
		return "Package lists updated!"
	}
	return "Installation complete!"
}
