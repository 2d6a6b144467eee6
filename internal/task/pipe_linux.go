package task

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// pipe returns a close-on-exec pipe. The read end is switched to non-blocking
// mode so a watcher parks in the runtime poller instead of an OS thread. The
// write end stays blocking, the child inherits it as stdout or stderr.
func pipe() (*os.File, *os.File, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, nil, fmt.Errorf("pipe2: %w", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, nil, fmt.Errorf("set nonblock: %w", err)
	}
	return os.NewFile(uintptr(fds[0]), "|0"), os.NewFile(uintptr(fds[1]), "|1"), nil
}
