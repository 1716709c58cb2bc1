//go:build !windows

// internal/launcher/detach_unix.go
package launcher

import (
	"os/exec"
	"syscall"
)

// startDetached runs path in its own session so it outlives this process.
func startDetached(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
