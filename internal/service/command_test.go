package service_test

import (
	"testing"
	"time"

	"github.com/CZERTAINLY/executor/internal/model"
	"github.com/CZERTAINLY/executor/internal/service"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	var testCases = []struct {
		scenario string
		given    string
		then     service.Command
	}{
		{"run", "run echo hello world", service.Command{Verb: service.VerbRun, Args: []string{"echo", "hello", "world"}}},
		{"run extra spaces", "  run   sleep\t10 ", service.Command{Verb: service.VerbRun, Args: []string{"sleep", "10"}}},
		{"out", "out 3", service.Command{Verb: service.VerbOut, ID: 3}},
		{"err", "err 0", service.Command{Verb: service.VerbErr, ID: 0}},
		{"kill", "kill 12", service.Command{Verb: service.VerbKill, ID: 12}},
		{"negative id parses", "out -1", service.Command{Verb: service.VerbOut, ID: -1}},
		{"sleep", "sleep 50", service.Command{Verb: service.VerbSleep, Sleep: 50 * time.Millisecond}},
		{"sleep unit", "sleep 2 s", service.Command{Verb: service.VerbSleep, Sleep: 2 * time.Second}},
		{"quit", "quit", service.Command{Verb: service.VerbQuit}},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			cmd, err := service.ParseCommand(tt.given, time.Millisecond)
			require.NoError(t, err)
			require.Equal(t, tt.then, cmd)
		})
	}
}

func TestParseCommand_Malformed(t *testing.T) {
	var testCases = []struct {
		scenario string
		given    string
		then     string
	}{
		{"empty", "   ", "malformed command: empty line"},
		{"unknown verb", "list", `malformed command: unknown verb "list"`},
		{"verb is case sensitive", "RUN echo", `malformed command: unknown verb "RUN"`},
		{"run without program", "run", "malformed command: run expects a program"},
		{"out without id", "out", "malformed command: out expects one task id"},
		{"kill two ids", "kill 1 2", "malformed command: kill expects one task id"},
		{"err not a number", "err x", `malformed command: task id "x" is not a number`},
		{"out float", "out 1.5", `malformed command: task id "1.5" is not a number`},
		{"sleep not a number", "sleep soon", `malformed command: invalid sleep duration "soon"`},
		{"quit with args", "quit now", "malformed command: quit takes no arguments"},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			_, err := service.ParseCommand(tt.given, time.Millisecond)
			require.ErrorIs(t, err, model.ErrMalformedCommand)
			require.EqualError(t, err, tt.then)
		})
	}
}

func TestParseCommand_IDOutOfRange(t *testing.T) {
	for _, given := range []string{"out 99999999999999999999", "err -99999999999999999999", "kill 18446744073709551616"} {
		t.Run(given, func(t *testing.T) {
			_, err := service.ParseCommand(given, time.Millisecond)
			require.ErrorIs(t, err, model.ErrInvalidID)
			require.NotErrorIs(t, err, model.ErrMalformedCommand)
		})
	}
}
