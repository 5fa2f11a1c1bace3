// Package eventloop defines the event loop contract a session is driven by,
// plus a default POSIX implementation. The loop owns terminal input and the
// control thread: key presses, resize notifications and scheduled callbacks
// are all delivered from Run's calling goroutine.
package eventloop

import (
	"time"

	"github.com/mattmrsa/goprompt/pkg/term"
)

// KeyPress is one chunk of decoded terminal input. Turning raw bytes into
// named keys is the input processor's job; the loop only carries the payload.
type KeyPress struct {
	Data []byte
}

// Callbacks is how the loop talks back to the session while Run is blocking.
type Callbacks interface {
	// FeedKey delivers a key press.
	FeedKey(key KeyPress)

	// TerminalSizeChanged reports a terminal resize.
	TerminalSizeChanged()

	// InputTimeout fires after a period of input inactivity.
	InputTimeout()
}

// Loop drives a session. Run blocks until Stop is called; RunInExecutor and
// CallFromExecutor are the only channels between background workers and the
// control thread.
type Loop interface {
	// Run reads input and dispatches to callbacks until Stop is called.
	Run(input term.Input, callbacks Callbacks) error

	// RunInExecutor runs fn on a background worker.
	RunInExecutor(fn func())

	// CallFromExecutor schedules fn on the control thread. A non-zero
	// maxPostponeUntil bounds how long the loop may delay fn in favor of
	// pending input; a zero time means fn runs whenever the loop is idle.
	CallFromExecutor(fn func(), maxPostponeUntil time.Time)

	// Stop makes Run return.
	Stop()

	// AddReader watches an extra file descriptor and invokes cb on the
	// control thread when it becomes readable.
	AddReader(fd int, cb func())

	// RemoveReader stops watching fd.
	RemoveReader(fd int)

	// Close releases loop resources. The loop cannot be reused afterwards.
	Close() error
}

// scheduledCall is a callback queued by CallFromExecutor.
type scheduledCall struct {
	fn       func()
	deadline time.Time // zero when the call has no postponement bound
}
