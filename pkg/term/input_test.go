//go:build !windows

package term

import (
	"testing"

	"github.com/creack/pty"
)

func openTTY(t *testing.T) *StdinInput {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	t.Cleanup(func() { ptmx.Close(); tty.Close() })
	return NewStdinInput(tty)
}

func (in *StdinInput) rawActive() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.saved != nil
}

func TestRawModeRefCounting(t *testing.T) {
	in := openTTY(t)
	if !in.IsTerminal() {
		t.Fatal("pty slave should look like a terminal")
	}

	release1, err := in.RawMode()
	if err != nil {
		t.Fatal(err)
	}
	release2, err := in.RawMode()
	if err != nil {
		t.Fatal(err)
	}
	if !in.rawActive() {
		t.Fatal("raw mode should be active")
	}

	// The mode survives until the last holder releases.
	release1()
	if !in.rawActive() {
		t.Error("raw mode dropped while still held")
	}
	release2()
	if in.rawActive() {
		t.Error("raw mode not restored after final release")
	}
}

func TestCookedModeOverridesRaw(t *testing.T) {
	in := openTTY(t)

	releaseRaw, err := in.RawMode()
	if err != nil {
		t.Fatal(err)
	}
	defer releaseRaw()

	releaseCooked, err := in.CookedMode()
	if err != nil {
		t.Fatal(err)
	}
	if in.rawActive() {
		t.Error("cooked acquisition should suspend raw mode")
	}

	releaseCooked()
	if !in.rawActive() {
		t.Error("raw mode should resume when the cooked holder releases")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	in := openTTY(t)

	release, err := in.RawMode()
	if err != nil {
		t.Fatal(err)
	}
	release()
	release()

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.rawRefs != 0 {
		t.Errorf("rawRefs = %d after double release, want 0", in.rawRefs)
	}
}
