package task

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPipe(t *testing.T) {
	r, w, err := pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		closeAll(r, w)
	})

	for _, tc := range []struct {
		file     *os.File
		nonblock bool
	}{
		{r, true},
		{w, false},
	} {
		t.Run(tc.file.Name(), func(t *testing.T) {
			rc, err := tc.file.SyscallConn()
			require.NoError(t, err)
			var (
				flags    int
				nonblock bool
				ferr     error
				nerr     error
			)
			require.NoError(t, rc.Control(func(fd uintptr) {
				flags, ferr = unix.FcntlInt(fd, unix.F_GETFD, 0)
				var fl int
				fl, nerr = unix.FcntlInt(fd, unix.F_GETFL, 0)
				nonblock = fl&unix.O_NONBLOCK != 0
			}))
			require.NoError(t, ferr)
			require.NoError(t, nerr)
			require.NotZero(t, flags&unix.FD_CLOEXEC, "descriptor is not close-on-exec")
			require.Equal(t, tc.nonblock, nonblock)
		})
	}
}
