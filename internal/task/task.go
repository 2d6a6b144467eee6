package task

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/CZERTAINLY/executor/internal/log"
	"github.com/CZERTAINLY/executor/internal/model"
)

const readerSize = 4096

// Notifier receives the exit notification of a task.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) {
	f(msg)
}

type Options struct {
	// LineCapacity bounds the retained stdout and stderr line in bytes.
	LineCapacity int
	// Notifier gets the "Task N ended" message, may be nil.
	Notifier Notifier
}

// ExitStatus classifies how a task process terminated.
type ExitStatus struct {
	Code      int
	Signalled bool
	Signal    syscall.Signal
}

func (e ExitStatus) String() string {
	if e.Signalled {
		return "signalled"
	}
	return fmt.Sprintf("status %d", e.Code)
}

// Task is one spawned process together with the last line captured from its
// stdout and stderr. A Task owns three goroutines: an exit watcher and one
// capture watcher per stream.
type Task struct {
	ID      int
	Pid     int
	Args    []string
	Started time.Time

	cmd    *exec.Cmd
	stdout *Line
	stderr *Line
	wg     sync.WaitGroup
	done   chan struct{}

	mx      sync.RWMutex
	stopped time.Time
	exit    *ExitStatus
}

// Spawn starts args[0] with args[1:] as a task with the given id. The child
// writes stdout and stderr into pipes, the parent keeps only the read ends,
// which are close-on-exec. All descriptors are closed when the process can't
// be started. Spawn does not wait for the process.
func Spawn(ctx context.Context, id int, args []string, opts Options) (*Task, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no program given", model.ErrSpawnFailure)
	}
	if opts.LineCapacity <= 0 {
		opts.LineCapacity = model.DefaultLineCapacity
	}

	outR, outW, err := pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating stdout pipe: %w", model.ErrSpawnFailure, err)
	}
	errR, errW, err := pipe()
	if err != nil {
		closeAll(outR, outW)
		return nil, fmt.Errorf("%w: creating stderr pipe: %w", model.ErrSpawnFailure, err)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = outW
	cmd.Stderr = errW
	setProcessGroup(cmd)

	started := time.Now().UTC()
	if err := cmd.Start(); err != nil {
		closeAll(outR, outW, errR, errW)
		return nil, fmt.Errorf("%w: %w", model.ErrSpawnFailure, err)
	}
	// the child holds its own copies, watchers see EOF once it is gone
	closeAll(outW, errW)

	t := &Task{
		ID:      id,
		Pid:     cmd.Process.Pid,
		Args:    append([]string(nil), args...),
		Started: started,
		cmd:     cmd,
		stdout:  NewLine(opts.LineCapacity),
		stderr:  NewLine(opts.LineCapacity),
		done:    make(chan struct{}),
	}

	ctx = log.ContextAttrs(ctx, slog.Group("task",
		slog.Int("id", t.ID),
		slog.Int("pid", t.Pid),
	))
	slog.DebugContext(ctx, "task started", "args", t.Args)

	t.wg.Go(func() {
		t.waitExit(ctx, opts.Notifier)
	})
	t.wg.Go(func() {
		t.capture(ctx, "stdout", outR, t.stdout)
	})
	t.wg.Go(func() {
		t.capture(ctx, "stderr", errR, t.stderr)
	})
	return t, nil
}

// Stdout returns the last non-empty line the task wrote to stdout.
func (t *Task) Stdout() string {
	return t.stdout.Get()
}

// Stderr returns the last non-empty line the task wrote to stderr.
func (t *Task) Stderr() string {
	return t.stderr.Get()
}

// Interrupt asks the process to stop. It does not wait.
func (t *Task) Interrupt(ctx context.Context) error {
	return t.signal(ctx, os.Interrupt, t.cmd.Process.Signal)
}

// Kill sends SIGKILL to the process group of the task, so background
// children still holding the output pipes go down too.
func (t *Task) Kill(ctx context.Context) error {
	return t.signal(ctx, os.Kill, t.signalGroup)
}

func (t *Task) signal(ctx context.Context, sig os.Signal, send func(os.Signal) error) error {
	err := send(sig)
	if errors.Is(err, os.ErrProcessDone) {
		slog.DebugContext(ctx, "task already finished: signal not sent", "task_id", t.ID, "signal", sig.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("signalling task %d: %w", t.ID, err)
	}
	return nil
}

// Done is closed once the exit watcher has observed the process exit.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until all three watchers of the task have returned.
func (t *Task) Wait() {
	t.wg.Wait()
}

// Exit reports how the process ended, false while it is still running.
func (t *Task) Exit() (ExitStatus, bool) {
	t.mx.RLock()
	defer t.mx.RUnlock()
	if t.exit == nil {
		return ExitStatus{}, false
	}
	return *t.exit, true
}

func (t *Task) Stopped() time.Time {
	t.mx.RLock()
	defer t.mx.RUnlock()
	return t.stopped
}

func (t *Task) waitExit(ctx context.Context, notifier Notifier) {
	defer close(t.done)

	err := t.cmd.Wait()
	stopped := time.Now().UTC()
	state := t.cmd.ProcessState
	if state == nil {
		// still reported, as status -1
		slog.ErrorContext(ctx, "waiting for task failed", "error", err)
	}

	exit := classify(state)
	t.mx.Lock()
	t.stopped = stopped
	t.exit = &exit
	t.mx.Unlock()

	slog.DebugContext(ctx, "task ended", "exit", exit.String(), "duration", stopped.Sub(t.Started))
	if notifier != nil {
		notifier.Notify(fmt.Sprintf("Task %d ended: %s.\n", t.ID, exit))
	}
}

func (t *Task) capture(ctx context.Context, stream string, r io.ReadCloser, slot *Line) {
	defer func() {
		_ = r.Close()
	}()

	br := bufio.NewReaderSize(r, readerSize)
	for {
		// one extra byte lets Set detect the overflow
		line, err := readLine(br, slot.Capacity()+1)
		if serr := slot.Set(string(line)); serr != nil {
			slog.WarnContext(ctx, "output line truncated", "stream", stream, "error", serr)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.ErrorContext(ctx, "reading task output", "stream", stream, "error", err)
			}
			return
		}
	}
}

func classify(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signalled: true, Signal: ws.Signal()}
	}
	return ExitStatus{Code: state.ExitCode()}
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
