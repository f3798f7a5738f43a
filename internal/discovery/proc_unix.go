//go:build unix

package discovery

import "syscall"

// processAlive reports whether a process with the given pid exists, using the
// zero signal. EPERM still means the process exists, just owned by someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
