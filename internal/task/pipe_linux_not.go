//go:build !linux

package task

import "os"

// pipe falls back to os.Pipe, which is close-on-exec on every platform.
func pipe() (*os.File, *os.File, error) {
	return os.Pipe()
}
