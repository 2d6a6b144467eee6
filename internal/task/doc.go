// Package task implements spawning and watching of external processes.
//
// A Task is created by Spawn. Its stdout and stderr are redirected into two
// pipes and three goroutines are started:
//
//	Spawn ---> exit watcher     cmd.Wait, classify, Notifier.Notify("Task N ended: ...")
//	      \--> stdout watcher   read lines, keep the last non-empty one
//	       \-> stderr watcher   read lines, keep the last non-empty one
//
// Watchers write only to their own Task or to the Notifier. Each captured
// stream keeps a single line bounded by Options.LineCapacity, longer lines are
// truncated. The capture watchers end when the child closes its side of the
// pipe, normally at exit.
//
// Registry is the append-only arena of tasks, an id is the index into it.
package task
