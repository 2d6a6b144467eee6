// Package service implements the interactive command dispatcher of the executor.
//
// Overview
// The Supervisor reads the control input line by line. Each line is one of
//
//	run <program> [args...]
//	out <id>
//	err <id>
//	kill <id>
//	sleep <n>[unit] | sleep <n> <unit>
//	quit
//
// and is answered on the Console. Tasks live in an append-only task.Registry,
// a task id is its index.
//
// Console is the single owner of the output stream. The dispatcher holds it
// for the duration of a command, task exit watchers running concurrently send
// their "Task N ended" messages to it and those are queued until the command
// response is written:
//
//	Supervisor             Console                 exit watcher
//	    |  Hold() ----------->| held                    |
//	    |                     |<------ Notify(ended) ---| queued
//	    |  Printf(response) ->| written                 |
//	    |  Release() -------->| queue written, printing |
//	    |                     |<------ Notify(ended) ---| written
//
// Invariants:
//   - A command response is written as one unit, never interleaved.
//   - No notification is dropped before Close, queued ones keep arrival order.
//   - Blank lines are ignored and do not hold the console.
//   - Errors of a command are printed as "Error: <reason>." and the loop goes on.
//   - On shutdown every task is killed and all watchers are joined before the
//     console is closed and flushed.
package service
