//go:build windows
// +build windows

package eventloop

import (
	"os"
	"sync"
	"time"
)

// pollFd has no cheap equivalent on Windows consoles; report readable and
// let the caller block in Read. Known limitation: after Stop the reader
// goroutine stays blocked in Read until one more key arrives, so Run's
// teardown can wait for a final keypress. A proper fix would wait on the
// console handle via WaitForSingleObject.
func pollFd(fd int, timeout time.Duration) bool {
	return true
}

// notifyResize returns a channel that never fires; Windows has no SIGWINCH.
func notifyResize() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal)
	return ch, func() {}
}

type fdReader struct {
	stopOnce sync.Once
	stopCh   chan struct{}
}

// watchFd is not supported on Windows; the returned reader is inert.
func watchFd(fd int, onReadable func(done func())) *fdReader {
	return &fdReader{stopCh: make(chan struct{})}
}

func (r *fdReader) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
