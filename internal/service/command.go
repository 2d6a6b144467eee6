package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/CZERTAINLY/executor/internal/model"
)

type Verb string

const (
	VerbRun   Verb = "run"
	VerbOut   Verb = "out"
	VerbErr   Verb = "err"
	VerbKill  Verb = "kill"
	VerbSleep Verb = "sleep"
	VerbQuit  Verb = "quit"
)

// Command is one parsed line of the control protocol.
type Command struct {
	Verb  Verb
	Args  []string      // run: program and its arguments
	ID    int           // out, err, kill
	Sleep time.Duration // sleep
}

// ParseCommand splits line on whitespace and validates the verb and its
// arguments. Failures wrap model.ErrMalformedCommand, except a task id out
// of the int range, which wraps model.ErrInvalidID.
func ParseCommand(line string, sleepUnit time.Duration) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", model.ErrMalformedCommand)
	}

	cmd := Command{Verb: Verb(fields[0])}
	args := fields[1:]
	switch cmd.Verb {
	case VerbRun:
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: run expects a program", model.ErrMalformedCommand)
		}
		cmd.Args = args
	case VerbOut, VerbErr, VerbKill:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: %s expects one task id", model.ErrMalformedCommand, cmd.Verb)
		}
		id, err := strconv.Atoi(args[0])
		if errors.Is(err, strconv.ErrRange) {
			// a number, just no task can have it
			return Command{}, fmt.Errorf("%w: %s", model.ErrInvalidID, args[0])
		}
		if err != nil {
			return Command{}, fmt.Errorf("%w: task id %q is not a number", model.ErrMalformedCommand, args[0])
		}
		cmd.ID = id
	case VerbSleep:
		d, err := ParseSleep(args, sleepUnit)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", model.ErrMalformedCommand, err)
		}
		cmd.Sleep = d
	case VerbQuit:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: quit takes no arguments", model.ErrMalformedCommand)
		}
	default:
		return Command{}, fmt.Errorf("%w: unknown verb %q", model.ErrMalformedCommand, fields[0])
	}
	return cmd, nil
}
