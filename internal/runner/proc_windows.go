//go:build windows

package runner

import (
	"os"
	"os/exec"
)

// configureProcAttr is a no-op on Windows
func configureProcAttr(cmd *exec.Cmd) {}

// signalGraceful has no portable graceful signal on Windows; kill outright
func signalGraceful(process *os.Process) error {
	return process.Kill()
}

// signalKill forcibly kills the process
func signalKill(process *os.Process) error {
	return process.Kill()
}
