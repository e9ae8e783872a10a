//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, so the
// renderer and GPU helpers Chrome spawned go down with it.
func KillProcessGroup(pid int) {
	// launcher.Kill() still runs after this; a failure here is not fatal.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
