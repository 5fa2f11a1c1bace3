//go:build !windows

package eventloop

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeInput adapts the read end of a pipe to term.Input for loop tests.
type pipeInput struct {
	r *os.File
}

func (p *pipeInput) RawMode() (func(), error)    { return func() {}, nil }
func (p *pipeInput) CookedMode() (func(), error) { return func() {}, nil }
func (p *pipeInput) Fd() int                     { return int(p.r.Fd()) }
func (p *pipeInput) Read(b []byte) (int, error)  { return p.r.Read(b) }

// chanCallbacks exposes loop callbacks as channels.
type chanCallbacks struct {
	keys     chan []byte
	resizes  chan struct{}
	timeouts chan struct{}
}

func newChanCallbacks() *chanCallbacks {
	return &chanCallbacks{
		keys:     make(chan []byte, 16),
		resizes:  make(chan struct{}, 16),
		timeouts: make(chan struct{}, 16),
	}
}

func (c *chanCallbacks) FeedKey(key KeyPress) { c.keys <- key.Data }
func (c *chanCallbacks) TerminalSizeChanged() { c.resizes <- struct{}{} }
func (c *chanCallbacks) InputTimeout()        { c.timeouts <- struct{}{} }

func startLoop(t *testing.T, l *PosixLoop, cbs Callbacks) (*os.File, <-chan error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(); w.Close() })

	done := make(chan error, 1)
	go func() {
		done <- l.Run(&pipeInput{r: r}, cbs)
	}()
	return w, done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not stop in time")
		return nil
	}
}

func TestPosixLoopFeedsInput(t *testing.T) {
	l := NewPosixLoop()
	cbs := newChanCallbacks()
	w, done := startLoop(t, l, cbs)

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)

	select {
	case data := <-cbs.keys:
		assert.Equal(t, []byte("abc"), data)
	case <-time.After(3 * time.Second):
		t.Fatal("no key press arrived")
	}

	l.Stop()
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopCallFromExecutor(t *testing.T) {
	l := NewPosixLoop()
	_, done := startLoop(t, l, newChanCallbacks())

	ran := make(chan struct{})
	l.CallFromExecutor(func() {
		close(ran)
		l.Stop()
	}, time.Time{})

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled call never ran")
	}
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopQueuesCallsAcrossRuns(t *testing.T) {
	l := NewPosixLoop()

	// Scheduled while the loop is idle: must execute during the next Run.
	ran := make(chan struct{})
	l.CallFromExecutor(func() {
		close(ran)
		l.Stop()
	}, time.Time{})

	_, done := startLoop(t, l, newChanCallbacks())
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("queued call was lost")
	}
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopRunInExecutorPanicReachesControlThread(t *testing.T) {
	l := NewPosixLoop()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	recovered := make(chan any, 1)
	go func() {
		defer func() { recovered <- recover() }()
		_ = l.Run(&pipeInput{r: r}, newChanCallbacks())
	}()

	l.RunInExecutor(func() { panic("worker exploded") })

	select {
	case r := <-recovered:
		assert.Equal(t, "worker exploded", r)
	case <-time.After(3 * time.Second):
		t.Fatal("panic never surfaced on the control thread")
	}
}

func TestPosixLoopInputTimeout(t *testing.T) {
	l := NewPosixLoop()
	l.InputTimeout = 20 * time.Millisecond
	cbs := newChanCallbacks()
	_, done := startLoop(t, l, cbs)

	select {
	case <-cbs.timeouts:
	case <-time.After(3 * time.Second):
		t.Fatal("input timeout never fired")
	}

	l.Stop()
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopAddReader(t *testing.T) {
	l := NewPosixLoop()
	_, done := startLoop(t, l, newChanCallbacks())

	// A watched fd with data pending triggers its callback on the control
	// thread.
	wr, ww, err := os.Pipe()
	require.NoError(t, err)
	defer wr.Close()
	defer ww.Close()
	_, err = ww.Write([]byte("x"))
	require.NoError(t, err)

	fired := make(chan struct{})
	var once bool
	l.AddReader(int(wr.Fd()), func() {
		if !once {
			once = true
			close(fired)
		}
		// Consume so the fd stops polling readable.
		buf := make([]byte, 8)
		_, _ = wr.Read(buf)
	})

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("reader callback never ran")
	}

	l.RemoveReader(int(wr.Fd()))
	l.Stop()
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopDeadlineBeatsInputPressure(t *testing.T) {
	l := NewPosixLoop()
	cbs := newChanCallbacks()
	w, done := startLoop(t, l, cbs)

	// Keep the loop busy with a steady input stream, and drain the key
	// channel so dispatch never stalls.
	stopWriting := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopWriting:
				return
			default:
			}
			if _, err := w.Write([]byte("k")); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	go func() {
		for {
			select {
			case <-cbs.keys:
			case <-stopWriting:
				return
			}
		}
	}()
	defer close(stopWriting)

	// Pending input may postpone the callback, but never past its bound.
	deadline := time.Now().Add(300 * time.Millisecond)
	ran := make(chan time.Time, 1)
	l.CallFromExecutor(func() { ran <- time.Now() }, deadline)

	select {
	case at := <-ran:
		if late := at.Sub(deadline); late > 150*time.Millisecond {
			t.Fatalf("deferred call ran %v past its deadline", late)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("deferred call never ran despite an expired deadline")
	}

	l.Stop()
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopRequeueDropsWithoutBlocking(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOPROMPT_LOG_DIR", dir)
	t.Setenv("GOPROMPT_DEBUG", "1")

	l := NewPosixLoop()
	for i := 0; i < cap(l.calls); i++ {
		l.CallFromExecutor(func() {}, time.Time{})
	}

	// With the queue at capacity the overflow is dropped, never blocked on.
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		l.requeue([]scheduledCall{{fn: func() {}}})
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("requeue blocked on a full queue")
	}

	data, err := os.ReadFile(filepath.Join(dir, "goprompt.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dropping 1 deferred calls")
}

func TestPosixLoopRejectsConcurrentRun(t *testing.T) {
	l := NewPosixLoop()
	_, done := startLoop(t, l, newChanCallbacks())

	// Give the first Run a moment to take ownership.
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.running
	}, time.Second, 5*time.Millisecond)

	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	defer r2.Close()
	defer w2.Close()
	assert.Error(t, l.Run(&pipeInput{r: r2}, newChanCallbacks()))

	l.Stop()
	require.NoError(t, waitErr(t, done))
}

func TestPosixLoopCloseRejectsRun(t *testing.T) {
	l := NewPosixLoop()
	require.NoError(t, l.Close())

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	assert.Error(t, l.Run(&pipeInput{r: r}, newChanCallbacks()))
}
