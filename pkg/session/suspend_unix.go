//go:build !windows
// +build !windows

package session

import (
	"os"
	"syscall"
)

// SuspendToBackground sends SIGTSTP to the process, the way Control-Z would,
// after ceding the terminal. Resuming (fg) restores the UI through the usual
// repaint path.
func (s *Session) SuspendToBackground() {
	_ = s.RunInTerminal(func() error {
		return syscall.Kill(os.Getpid(), syscall.SIGTSTP)
	}, false)
}
