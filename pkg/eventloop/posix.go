package eventloop

import (
	"fmt"
	"sync"
	"time"

	"github.com/mattmrsa/goprompt/pkg/logging"
	"github.com/mattmrsa/goprompt/pkg/term"
)

const defaultInputTimeout = 500 * time.Millisecond

// PosixLoop is the default Loop for POSIX terminals. One goroutine reads
// input bytes, a SIGWINCH handler reports resizes, and Run's goroutine is the
// control thread every callback executes on.
type PosixLoop struct {
	mu      sync.Mutex
	calls   chan scheduledCall
	stopCh  chan struct{}
	running bool
	closed  bool

	// InputTimeout is the inactivity period after which InputTimeout fires
	// on the callbacks. Zero selects the default of 500ms.
	InputTimeout time.Duration

	readers map[int]*fdReader
}

// NewPosixLoop creates a loop ready for Run.
func NewPosixLoop() *PosixLoop {
	return &PosixLoop{
		calls:   make(chan scheduledCall, 256),
		readers: make(map[int]*fdReader),
	}
}

// Run drives the loop until Stop. Pending input always wins over scheduled
// callbacks, except that a callback whose postponement deadline has passed
// runs immediately.
func (l *PosixLoop) Run(input term.Input, callbacks Callbacks) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("event loop is closed")
	}
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("event loop already running")
	}
	l.running = true
	stopCh := make(chan struct{})
	l.stopCh = stopCh
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.stopCh = nil
		l.mu.Unlock()
	}()

	inputCh, readerDone := startInputReader(input, stopCh)
	defer func() { <-readerDone }()
	// A panicking callback must still release the reader goroutine.
	defer l.Stop()

	resizeCh, stopResize := notifyResize()
	defer stopResize()

	idle := l.InputTimeout
	if idle <= 0 {
		idle = defaultInputTimeout
	}

	var pending []scheduledCall
	timedOut := false

	for {
		// Run whatever may no longer be postponed.
		pending = l.runExpired(pending)

		timeout := idle
		if next, ok := nearestDeadline(pending); ok {
			if until := time.Until(next); until < timeout {
				timeout = until
			}
		}
		if timeout < 0 {
			timeout = 0
		}
		timer := time.NewTimer(timeout)

		select {
		case <-stopCh:
			timer.Stop()
			// Leave unrun callbacks queued for the next Run instead of
			// executing them into a session that already painted its
			// final frame.
			l.requeue(pending)
			return nil

		case data, ok := <-inputCh:
			timer.Stop()
			if !ok {
				// Input closed underneath us; treat as a stop request.
				l.Stop()
				continue
			}
			timedOut = false
			callbacks.FeedKey(KeyPress{Data: data})

		case <-resizeCh:
			timer.Stop()
			callbacks.TerminalSizeChanged()

		case call := <-l.calls:
			timer.Stop()
			pending = append(pending, call)
			// Only run it now if no input is waiting.
			select {
			case data, ok := <-inputCh:
				if ok {
					timedOut = false
					callbacks.FeedKey(KeyPress{Data: data})
				}
			default:
				for _, c := range pending {
					c.fn()
				}
				pending = pending[:0]
			}

		case <-timer.C:
			if len(pending) > 0 {
				for _, c := range pending {
					c.fn()
				}
				pending = pending[:0]
			} else if !timedOut {
				timedOut = true
				callbacks.InputTimeout()
			}
		}
	}
}

// runExpired executes calls whose deadline passed and returns the remainder.
func (l *PosixLoop) runExpired(pending []scheduledCall) []scheduledCall {
	now := time.Now()
	remaining := pending[:0]
	for _, c := range pending {
		if !c.deadline.IsZero() && !c.deadline.After(now) {
			c.fn()
		} else {
			remaining = append(remaining, c)
		}
	}
	return remaining
}

func nearestDeadline(pending []scheduledCall) (time.Time, bool) {
	var next time.Time
	for _, c := range pending {
		if c.deadline.IsZero() {
			continue
		}
		if next.IsZero() || c.deadline.Before(next) {
			next = c.deadline
		}
	}
	return next, !next.IsZero()
}

// requeue puts deferred calls back on the queue, oldest first, best effort.
func (l *PosixLoop) requeue(pending []scheduledCall) {
	for i, c := range pending {
		select {
		case l.calls <- c:
		default:
			logging.Debugf("eventloop: queue full, dropping %d deferred calls", len(pending)-i)
			return
		}
	}
}

// RunInExecutor runs fn on its own goroutine. A panic in fn is re-raised on
// the control thread so a failing worker never dies silently.
func (l *PosixLoop) RunInExecutor(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Debugf("eventloop: executor panic: %v", r)
				l.CallFromExecutor(func() { panic(r) }, time.Time{})
			}
		}()
		fn()
	}()
}

// CallFromExecutor schedules fn on the control thread. Safe from any
// goroutine. When the loop is not running, the call is queued and executes
// during the next Run.
func (l *PosixLoop) CallFromExecutor(fn func(), maxPostponeUntil time.Time) {
	l.calls <- scheduledCall{fn: fn, deadline: maxPostponeUntil}
}

// Stop makes Run return after flushing pending callbacks.
func (l *PosixLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopCh != nil {
		select {
		case <-l.stopCh:
		default:
			close(l.stopCh)
		}
	}
}

// AddReader watches fd for readability and calls cb on the control thread.
func (l *PosixLoop) AddReader(fd int, cb func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.readers[fd]; exists {
		return
	}
	l.readers[fd] = watchFd(fd, func(done func()) {
		l.CallFromExecutor(func() {
			cb()
			done()
		}, time.Time{})
	})
}

// RemoveReader stops watching fd.
func (l *PosixLoop) RemoveReader(fd int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, exists := l.readers[fd]; exists {
		r.stop()
		delete(l.readers, fd)
	}
}

// Close releases all readers. The loop cannot be reused.
func (l *PosixLoop) Close() error {
	l.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	for fd, r := range l.readers {
		r.stop()
		delete(l.readers, fd)
	}
	l.closed = true
	return nil
}

// startInputReader feeds input bytes to the returned channel until stopCh
// closes or the input reports an error. The fd is polled with a short
// timeout before every read so the goroutine notices a stop promptly instead
// of blocking inside Read.
func startInputReader(input term.Input, stopCh <-chan struct{}) (<-chan []byte, <-chan struct{}) {
	inputCh := make(chan []byte)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(inputCh)
		buf := make([]byte, 1024)
		for {
			select {
			case <-stopCh:
				return
			default:
			}
			if !pollFd(input.Fd(), 100*time.Millisecond) {
				continue
			}
			n, err := input.Read(buf)
			if err != nil || n == 0 {
				return
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case inputCh <- data:
			case <-stopCh:
				return
			}
		}
	}()

	return inputCh, done
}
