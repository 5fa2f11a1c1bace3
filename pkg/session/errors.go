package session

import "errors"

var (
	// ErrEOF is returned from ReturnValue after Exit when the exit policy is
	// ActionRaise. It is the "end of input" condition (Control-D).
	ErrEOF = errors.New("end of input")

	// ErrInterrupt is returned from ReturnValue after Abort when the abort
	// policy is ActionRaise (Control-C).
	ErrInterrupt = errors.New("interrupted")

	// ErrSubSessionRunning is returned by RunSubSession while another child
	// session is still active. A session holds at most one child at a time;
	// this is a programming error, never queued.
	ErrSubSessionRunning = errors.New("another sub-session is already running")
)
