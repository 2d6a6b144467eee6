package task

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitExit_NoProcessState(t *testing.T) {
	// never started, so Wait fails without a process state
	tk := &Task{ID: 5, cmd: exec.Command("true"), done: make(chan struct{})}

	var msgs []string
	tk.waitExit(t.Context(), NotifierFunc(func(msg string) {
		msgs = append(msgs, msg)
	}))

	require.Equal(t, []string{"Task 5 ended: status -1.\n"}, msgs)
	<-tk.Done()
	exit, ok := tk.Exit()
	require.True(t, ok)
	require.Equal(t, ExitStatus{Code: -1}, exit)
}
