//go:build !unix

package task

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func (t *Task) signalGroup(sig os.Signal) error {
	return t.cmd.Process.Signal(sig)
}
