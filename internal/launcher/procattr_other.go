//go:build !unix

package launcher

import "syscall"

// sysProcAttr returns no special attributes; process groups are a Unix notion.
func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
