//go:build !windows
// +build !windows

package eventloop

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// pollFd waits until fd is readable or the timeout passes. Returns true when
// data is available.
func pollFd(fd int, timeout time.Duration) bool {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	return err == nil && n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0
}

// notifyResize returns a channel that receives on SIGWINCH.
func notifyResize() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	return ch, func() {
		signal.Stop(ch)
	}
}

// fdReader watches one descriptor for readability on its own goroutine.
type fdReader struct {
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// watchFd invokes onReadable whenever fd has data. onReadable receives a
// done function and the watcher does not poll again until it is called, so a
// slow consumer cannot be flooded.
func watchFd(fd int, onReadable func(done func())) *fdReader {
	r := &fdReader{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for {
			select {
			case <-r.stopCh:
				return
			default:
			}
			if pollFd(fd, 100*time.Millisecond) {
				consumed := make(chan struct{})
				onReadable(func() { close(consumed) })
				select {
				case <-consumed:
				case <-r.stopCh:
					return
				}
			}
		}
	}()
	return r
}

func (r *fdReader) stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.done
	})
}
