//go:build unix

package indexing

import "syscall"

// isProcessRunning checks if a process with given PID is running on Unix systems
func isProcessRunning(pid int) bool {
	// Signal 0 checks for existence without delivering anything
	err := syscall.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM means the process exists but belongs to someone else
	return err == syscall.EPERM
}
