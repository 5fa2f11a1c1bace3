//go:build windows
// +build windows

package session

// SuspendToBackground is a no-op: Windows has no stop signal.
func (s *Session) SuspendToBackground() {}
