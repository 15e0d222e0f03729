package executor

import "strings"

// Command describes one invocation of an external tool.
type Command struct {
	Name    string
	Args    []string
	Env     []string // KEY=value pairs added to the child environment
	Elevate bool     // run with root privileges
}

// String returns the command line as it would be typed.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Env)+len(c.Args)+1)
	parts = append(parts, c.Env...)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Result holds the captured output of a finished one-shot command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// StreamKind identifies which pipe a streamed line came from.
type StreamKind int

const (
	Stdout StreamKind = iota
	Stderr
)

func (k StreamKind) String() string {
	if k == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is a single line read from a running command.
type Line struct {
	Text   string
	Stream StreamKind
}
