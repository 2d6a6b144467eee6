package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type consoleOp int

const (
	consoleHold consoleOp = iota
	consoleWrite
	consoleRelease
	consoleClose
)

type consoleReq struct {
	op    consoleOp
	text  string
	reply chan int
}

// Console is the only writer of the output stream. Command responses come
// from the dispatcher through Printf, asynchronous notifications come from
// task watchers through Notify. Between Hold and Release notifications are
// queued, so they never end up inside a command response; Release writes the
// queue in arrival order.
type Console struct {
	ctx   context.Context
	out   io.Writer
	notes chan string
	reqs  chan consoleReq
	done  chan struct{}
}

// NewConsole starts the console goroutine. Close must be called to stop it.
func NewConsole(ctx context.Context, out io.Writer) *Console {
	c := &Console{
		ctx:   ctx,
		out:   out,
		notes: make(chan string),
		reqs:  make(chan consoleReq),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Notify prints msg, or queues it while the console is held. It returns once
// the console has taken the message. Messages after Close are dropped.
func (c *Console) Notify(msg string) {
	select {
	case c.notes <- msg:
	case <-c.done:
		slog.WarnContext(c.ctx, "console closed: notification dropped", "msg", strings.TrimSpace(msg))
	}
}

// Hold switches the console to buffering mode.
func (c *Console) Hold() {
	c.call(consoleReq{op: consoleHold})
}

// Printf writes a command response as one unit.
func (c *Console) Printf(format string, args ...any) {
	c.call(consoleReq{op: consoleWrite, text: fmt.Sprintf(format, args...)})
}

// Release switches the console back to printing mode and flushes the queued
// notifications. It returns how many were flushed.
func (c *Console) Release() int {
	return c.call(consoleReq{op: consoleRelease})
}

// Close flushes everything still queued and stops the console goroutine.
// It returns how many notifications were flushed.
func (c *Console) Close() int {
	return c.call(consoleReq{op: consoleClose})
}

func (c *Console) call(req consoleReq) int {
	req.reply = make(chan int, 1)
	select {
	case c.reqs <- req:
	case <-c.done:
		return 0
	}
	return <-req.reply
}

func (c *Console) run() {
	defer close(c.done)

	var (
		held    bool
		pending []string
	)
	for {
		select {
		case msg := <-c.notes:
			if held {
				pending = append(pending, msg)
				continue
			}
			c.write(msg)
		case req := <-c.reqs:
			switch req.op {
			case consoleHold:
				held = true
				req.reply <- 0
			case consoleWrite:
				c.write(req.text)
				req.reply <- 0
			case consoleRelease:
				held = false
				c.write(strings.Join(pending, ""))
				req.reply <- len(pending)
				pending = nil
			case consoleClose:
				// pick up watchers blocked in Notify right now
			drain:
				for {
					select {
					case msg := <-c.notes:
						pending = append(pending, msg)
					default:
						break drain
					}
				}
				c.write(strings.Join(pending, ""))
				req.reply <- len(pending)
				return
			}
		}
	}
}

func (c *Console) write(text string) {
	if text == "" {
		return
	}
	if _, err := io.WriteString(c.out, text); err != nil {
		slog.ErrorContext(c.ctx, "writing to console", "error", err)
	}
}
