package session

import (
	"time"

	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/logging"
	"github.com/mattmrsa/goprompt/pkg/term"
)

// RunSubSession spawns a nested session that borrows this session's input,
// output and event loop, and owns the screen until it finishes. The parent
// stops painting while the child is active. When the child resolves, onDone
// receives its return value or error.
//
// Starting a second child while one is active is a programming error and
// fails with ErrSubSessionRunning without touching the active child.
func (s *Session) RunSubSession(cfg *Config, onDone func(value string, err error)) error {
	if s.child != nil {
		return ErrSubSessionRunning
	}

	logging.Debugf("session: starting sub-session")

	// The child draws over the region the parent occupied.
	s.renderer.Erase()

	var child *Session

	// Invoked when the child's loop proxy is stopped, i.e. the child set a
	// return value. The sequencing matters: the terminal must never show a
	// mix of parent and child chrome, and the parent's cursor-position
	// query cycle must restart cleanly.
	done := func() {
		child.redraw() // final paint in done state
		child.renderer.Reset()
		child.running.Store(false)

		s.child = nil

		s.renderer.RequestAbsoluteCursorPosition()
		s.redraw()

		value, err := child.ReturnValue()
		logging.Debugf("session: sub-session finished (err=%v)", err)
		if onDone != nil {
			onDone(value, err)
		}
	}

	child = New(cfg, &subLoop{parent: s.loop, onStop: done}, s.input, s.output)
	child.parent = s
	child.running.Store(true) // allow the child to render

	child.redraw()
	s.child = child
	return nil
}

// Parent returns the session this one was nested under, or nil.
func (s *Session) Parent() *Session {
	return s.parent
}

// subLoop is the event loop handed to a nested session. It has no I/O of its
// own: executor and reader calls are forwarded verbatim to the parent's real
// loop. Only Stop differs: instead of halting shared I/O it hands control
// back to the parent through the teardown callback.
type subLoop struct {
	parent eventloop.Loop
	onStop func()
}

func (l *subLoop) Run(input term.Input, callbacks eventloop.Callbacks) error {
	// The child never drives its own loop; the parent's loop feeds it
	// through the callback bridge.
	panic("subLoop.Run must not be called")
}

func (l *subLoop) RunInExecutor(fn func()) {
	l.parent.RunInExecutor(fn)
}

func (l *subLoop) CallFromExecutor(fn func(), maxPostponeUntil time.Time) {
	l.parent.CallFromExecutor(fn, maxPostponeUntil)
}

func (l *subLoop) Stop() {
	l.onStop()
}

func (l *subLoop) AddReader(fd int, cb func()) {
	l.parent.AddReader(fd, cb)
}

func (l *subLoop) RemoveReader(fd int) {
	l.parent.RemoveReader(fd)
}

func (l *subLoop) Close() error {
	return nil
}
