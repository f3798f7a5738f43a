//go:build unix

package launcher

import "syscall"

// sysProcAttr puts the server in its own process group so terminal signals
// aimed at this process do not reach a server we intend to outlive us.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
