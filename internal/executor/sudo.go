package executor

import (
	"os"
	"os/exec"
)

const (
	// DefaultGUIHelper elevates through a polkit password dialog.
	DefaultGUIHelper = "pkexec"
	// DefaultTerminalHelper elevates through a terminal password prompt.
	DefaultTerminalHelper = "sudo"
)

// forwardedVars are the session variables the GUI helper strips but its
// password dialog and the elevated child still need.
var forwardedVars = []string{"DISPLAY", "XAUTHORITY", "WAYLAND_DISPLAY", "XDG_RUNTIME_DIR", "PATH"}

// Elevator decides how a command requesting root privileges is launched.
type Elevator struct {
	GUIHelper      string
	TerminalHelper string

	isRoot   func() bool
	getenv   func(string) string
	lookPath func(string) (string, error)
}

// NewElevator creates an Elevator for the current process.
// Empty helper names fall back to pkexec and sudo.
func NewElevator(guiHelper, terminalHelper string) *Elevator {
	if guiHelper == "" {
		guiHelper = DefaultGUIHelper
	}
	if terminalHelper == "" {
		terminalHelper = DefaultTerminalHelper
	}
	return &Elevator{
		GUIHelper:      guiHelper,
		TerminalHelper: terminalHelper,
		isRoot:         isRoot,
		getenv:         os.Getenv,
		lookPath:       exec.LookPath,
	}
}

// IsRoot returns true if the current process already runs as root.
func (e *Elevator) IsRoot() bool {
	return e.isRoot()
}

// Graphical reports whether a windowing session is present.
func (e *Elevator) Graphical() bool {
	return e.getenv("DISPLAY") != "" || e.getenv("WAYLAND_DISPLAY") != ""
}

// Helper returns the elevation helper that would be used, or "" when running as root.
func (e *Elevator) Helper() string {
	if e.isRoot() {
		return ""
	}
	if e.Graphical() {
		return e.GUIHelper
	}
	return e.TerminalHelper
}

// CanElevate returns true if the process is root or the selected helper is installed.
func (e *Elevator) CanElevate() bool {
	helper := e.Helper()
	if helper == "" {
		return true
	}
	_, err := e.lookPath(helper)
	return err == nil
}

// Wrap returns the argv to execute for cmd and the extra environment for the
// launched process. Commands that do not request elevation, or that run while
// already root, are returned unchanged with cmd.Env as the extra environment.
func (e *Elevator) Wrap(cmd Command) (name string, args []string, env []string, err error) {
	if !cmd.Elevate || e.isRoot() {
		return cmd.Name, cmd.Args, cmd.Env, nil
	}

	helper := e.Helper()
	if _, err := e.lookPath(helper); err != nil {
		return "", nil, nil, ErrNoPrivileges
	}

	var forwarded []string
	if helper == e.GUIHelper && e.Graphical() {
		for _, key := range forwardedVars {
			if value := e.getenv(key); value != "" {
				forwarded = append(forwarded, key+"="+value)
			}
		}
	}

	childEnv := append(append([]string{}, forwarded...), cmd.Env...)
	if len(childEnv) > 0 {
		args = append(args, "env")
		args = append(args, childEnv...)
	}
	args = append(args, cmd.Name)
	args = append(args, cmd.Args...)

	return helper, args, forwarded, nil
}
