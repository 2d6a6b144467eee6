package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CZERTAINLY/executor/internal/model"
	"github.com/CZERTAINLY/executor/internal/task"
)

const maxControlLine = 1 << 20

var ErrAlreadyStarted = errors.New("supervisor already started")

// Supervisor is the command dispatcher. It reads control lines, spawns and
// queries tasks and owns the console every response goes through.
type Supervisor struct {
	out          io.Writer
	sleepUnit    time.Duration
	lineCapacity int
	registry     *task.Registry[*task.Task]
	console      *Console
	started      atomic.Bool
}

func NewSupervisor(cfg model.Config, out io.Writer) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Supervisor{
		out:          out,
		sleepUnit:    model.SleepUnits[cfg.Sleep.Unit],
		lineCapacity: cfg.Tasks.LineCapacity,
		registry:     task.NewRegistry[*task.Task](cfg.Tasks.Max),
	}, nil
}

// Tasks returns every task spawned so far in id order.
func (s *Supervisor) Tasks() []*task.Task {
	return s.registry.All()
}

type controlLine struct {
	text string
	size int // full length, text keeps at most maxControlLine bytes
	err  error
}

// Do runs the dispatcher loop until quit, end of input, a read error or ctx
// cancellation. Each command runs with the console held, so exit
// notifications produced meanwhile are printed right after the response.
//
// Shutdown kills every registered task, waits for all of their watchers and
// flushes the console. Only a read error of the control input is returned.
func (s *Supervisor) Do(ctx context.Context, in io.Reader) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	slog.DebugContext(ctx, "starting a supervisor", "max_tasks", s.registry.Capacity())

	s.console = NewConsole(ctx, s.out)
	done := make(chan struct{})
	lines := readLines(in, done)

	defer func() {
		s.shutdown(ctx)
	}()

	defer func() {
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "context canceled: shutting down")
			return nil
		case l, ok := <-lines:
			if !ok {
				slog.DebugContext(ctx, "end of control input")
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("reading control input: %w", l.err)
			}
			if strings.TrimSpace(l.text) == "" {
				continue
			}

			s.console.Hold()
			if l.size > maxControlLine {
				s.fail(ctx, l.text[:32], fmt.Errorf("%w: %w: %d bytes, limit %d",
					model.ErrMalformedCommand, model.ErrLineOverflow, l.size, maxControlLine))
			} else if quit := s.handle(ctx, l.text); quit {
				return nil
			}
			if n := s.console.Release(); n > 0 {
				slog.DebugContext(ctx, "flushed deferred notifications", "count", n)
			}
		}
	}
}

func (s *Supervisor) handle(ctx context.Context, line string) bool {
	cmd, err := ParseCommand(line, s.sleepUnit)
	if err != nil {
		s.fail(ctx, line, err)
		return false
	}

	switch cmd.Verb {
	case VerbRun:
		err = s.run(ctx, cmd.Args)
	case VerbOut:
		err = s.output(cmd.ID, "stdout", (*task.Task).Stdout)
	case VerbErr:
		err = s.output(cmd.ID, "stderr", (*task.Task).Stderr)
	case VerbKill:
		err = s.kill(ctx, cmd.ID)
	case VerbSleep:
		s.sleep(ctx, cmd.Sleep)
	case VerbQuit:
		return true
	}
	if err != nil {
		s.fail(ctx, line, err)
	}
	return false
}

func (s *Supervisor) fail(ctx context.Context, line string, err error) {
	slog.DebugContext(ctx, "command failed", "line", line, "error", err)
	s.console.Printf("Error: %v.\n", err)
}

func (s *Supervisor) run(ctx context.Context, args []string) error {
	t, err := s.registry.Create(func(id int) (*task.Task, error) {
		return task.Spawn(ctx, id, args, task.Options{
			LineCapacity: s.lineCapacity,
			Notifier:     s.console,
		})
	})
	if err != nil {
		return err
	}
	s.console.Printf("Task %d started: pid %d.\n", t.ID, t.Pid)
	return nil
}

func (s *Supervisor) output(id int, stream string, last func(*task.Task) string) error {
	t, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	s.console.Printf("Task %d %s: '%s'.\n", t.ID, stream, last(t))
	return nil
}

func (s *Supervisor) kill(ctx context.Context, id int) error {
	t, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	return t.Interrupt(ctx)
}

func (s *Supervisor) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Supervisor) shutdown(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	tasks := s.registry.All()
	slog.DebugContext(ctx, "shutting down", "tasks", len(tasks))

	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			if err := t.Kill(ctx); err != nil {
				slog.WarnContext(ctx, "killing task failed", "task_id", t.ID, "error", err)
			}
			t.Wait()
			return nil
		})
	}
	_ = g.Wait() // goroutines do not return an error

	if n := s.console.Close(); n > 0 {
		slog.DebugContext(ctx, "flushed deferred notifications", "count", n)
	}
}

func readLines(in io.Reader, done <-chan struct{}) <-chan controlLine {
	lines := make(chan controlLine)
	go func() {
		defer close(lines)
		send := func(l controlLine) bool {
			select {
			case lines <- l:
				return true
			case <-done:
				return false
			}
		}

		br := bufio.NewReader(in)
		for {
			text, size, err := readControlLine(br, maxControlLine)
			if err != nil && !errors.Is(err, io.EOF) {
				send(controlLine{err: err})
				return
			}
			// a final line without newline still counts
			if err == nil || size > 0 {
				l := controlLine{text: strings.TrimSuffix(string(text), "\r"), size: size}
				if !send(l) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// readControlLine reads one newline terminated line and keeps at most limit
// bytes of it. The rest of an overlong line is consumed and dropped, size
// reports its full length without the newline.
func readControlLine(r *bufio.Reader, limit int) ([]byte, int, error) {
	var (
		line []byte
		size int
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}
		size += len(chunk)
		if room := limit - len(line); room > 0 {
			line = append(line, chunk[:min(room, len(chunk))]...)
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, size, err
		}
	}
}
