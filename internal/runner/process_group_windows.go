//go:build windows

package runner

import (
	"os/exec"
	"strconv"
	"syscall"
)

// configureProcessGroup starts cmd in a new process group and makes context
// cancellation kill the whole process tree.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
	cmd.Cancel = func() error {
		return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
	}
}
