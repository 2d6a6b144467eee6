package task_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

// set when the test binary runs as a spawned task listing its descriptors
const listPipesEnv = "EXECUTOR_TASK_LIST_PIPES"

func TestMain(m *testing.M) {
	if os.Getenv(listPipesEnv) != "" {
		pipes, err := openPipes()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Println("pipes:" + strings.Join(pipes, " "))
		os.Exit(0)
	}
	goleak.VerifyTestMain(m)
}

// openPipes lists the pipes open above stderr, as pipe:[inode]
func openPipes() ([]string, error) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return nil, err
	}
	var pipes []string
	for _, e := range entries {
		fd, err := strconv.Atoi(e.Name())
		if err != nil || fd <= 2 {
			continue
		}
		link, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err != nil {
			// the directory descriptor itself is gone by now
			continue
		}
		if strings.HasPrefix(link, "pipe:") {
			pipes = append(pipes, link)
		}
	}
	return pipes, nil
}
