package term

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// Input is the terminal input channel a session reads keys from. Raw and
// cooked mode are scoped acquisitions: the returned release function restores
// the previous mode and is safe to call more than once.
type Input interface {
	// RawMode switches the terminal to raw (unbuffered, no echo) input.
	RawMode() (release func(), err error)

	// CookedMode temporarily restores line-buffered input while raw mode is
	// held, typically around shelling out to another program.
	CookedMode() (release func(), err error)

	// Fd returns the file descriptor the event loop should read from.
	Fd() int

	// Read reads raw input bytes.
	Read(p []byte) (int, error)
}

// StdinInput implements Input on a real terminal file descriptor.
type StdinInput struct {
	mu         sync.Mutex
	file       *os.File
	saved      *term.State // terminal state before the first raw acquire
	rawRefs    int
	cookedRefs int
}

// NewStdinInput wraps the given file (normally os.Stdin).
func NewStdinInput(file *os.File) *StdinInput {
	return &StdinInput{file: file}
}

// RawMode acquires raw mode. Nested acquisitions are ref-counted; the mode is
// only restored when the last holder releases.
func (in *StdinInput) RawMode() (func(), error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.rawRefs++
	if err := in.applyLocked(); err != nil {
		in.rawRefs--
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			in.mu.Lock()
			defer in.mu.Unlock()
			in.rawRefs--
			_ = in.applyLocked()
		})
	}, nil
}

// CookedMode suspends raw mode while held. Used around external commands that
// expect a normal terminal.
func (in *StdinInput) CookedMode() (func(), error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.cookedRefs++
	if err := in.applyLocked(); err != nil {
		in.cookedRefs--
		return nil, fmt.Errorf("failed to enter cooked mode: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			in.mu.Lock()
			defer in.mu.Unlock()
			in.cookedRefs--
			_ = in.applyLocked()
		})
	}, nil
}

// applyLocked reconciles the terminal mode with the current ref counts.
// Raw mode is active iff at least one raw holder exists and no cooked
// acquisition overrides it.
func (in *StdinInput) applyLocked() error {
	desired := in.rawRefs > 0 && in.cookedRefs == 0
	active := in.saved != nil

	switch {
	case desired && !active:
		saved, err := term.MakeRaw(in.Fd())
		if err != nil {
			return err
		}
		in.saved = saved
	case !desired && active:
		if err := term.Restore(in.Fd(), in.saved); err != nil {
			return err
		}
		in.saved = nil
	}
	return nil
}

// Fd returns the underlying file descriptor.
func (in *StdinInput) Fd() int {
	return int(in.file.Fd())
}

// Read reads raw bytes from the terminal.
func (in *StdinInput) Read(p []byte) (int, error) {
	return in.file.Read(p)
}

// IsTerminal reports whether the input is attached to a real terminal.
func (in *StdinInput) IsTerminal() bool {
	return term.IsTerminal(in.Fd())
}
