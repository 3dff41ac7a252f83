//go:build !windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcAttr places the child in its own process group so that
// termination reaches the whole tree, not just the immediate child
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGraceful asks the process group to terminate
func signalGraceful(process *os.Process) error {
	return syscall.Kill(-process.Pid, syscall.SIGTERM)
}

// signalKill forcibly kills the process group
func signalKill(process *os.Process) error {
	return syscall.Kill(-process.Pid, syscall.SIGKILL)
}
