package executor

import "os"

// isRoot returns true if the current process is running as root.
func isRoot() bool {
	return os.Geteuid() == 0
}
