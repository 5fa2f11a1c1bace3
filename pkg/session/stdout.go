package session

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// StdoutProxy stands in for standard output while a session is rendering.
// Writes are buffered until a line break, then flushed through the
// run-above-the-prompt mechanism so ordinary program output scrolls above
// the UI instead of corrupting it.
//
// Buffering until a newline matters: print-style code writes "text" and
// "\n" in separate calls, and paying a full suspend/restore cycle per
// fragment would be far too expensive. Batching amortizes it to one cycle
// per printed line.
type StdoutProxy struct {
	mu  sync.Mutex
	s   *Session
	raw bool
	buf []string
}

// StdoutProxy creates a proxy for this session. With raw set, terminal
// escape sequences pass through unmodified.
func (s *Session) StdoutProxy(raw bool) *StdoutProxy {
	return &StdoutProxy{s: s, raw: raw}
}

// Write buffers data, flushing complete lines. Safe from any goroutine.
func (p *StdoutProxy) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(string(data))
	return len(data), nil
}

// WriteString implements io.StringWriter.
func (p *StdoutProxy) WriteString(data string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(data)
	return len(data), nil
}

func (p *StdoutProxy) write(data string) {
	i := strings.LastIndexByte(data, '\n')
	if i < 0 {
		p.buf = append(p.buf, data)
		return
	}

	// Flush everything up to and including the last line break; keep the
	// remainder buffered.
	before, after := data[:i], data[i+1:]
	toWrite := make([]string, 0, len(p.buf)+2)
	toWrite = append(toWrite, p.buf...)
	toWrite = append(toWrite, before, "\n")

	p.buf = p.buf[:0]
	if after != "" {
		p.buf = append(p.buf, after)
	}

	p.do(func() {
		p.emit(toWrite)
	})
}

// Flush forces out whatever remains buffered, then flushes the underlying
// output channel.
func (p *StdoutProxy) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.buf
	p.buf = nil
	if len(remaining) == 0 {
		// Nothing batched, but the output channel may still hold data.
		_ = p.s.output.Flush()
		return
	}
	p.do(func() {
		p.emit(remaining)
	})
}

// do runs fn through RunInTerminal on the control thread while the session
// is running; otherwise there is no UI to protect and fn runs directly.
func (p *StdoutProxy) do(fn func()) {
	if p.s.running.Load() {
		p.s.loop.CallFromExecutor(func() {
			_ = p.s.RunInTerminal(func() error {
				fn()
				return nil
			}, false)
		}, time.Time{})
	} else {
		fn()
	}
}

func (p *StdoutProxy) emit(fragments []string) {
	for _, frag := range fragments {
		if p.raw {
			p.s.output.WriteRaw(frag)
		} else {
			p.s.output.Write(frag)
		}
	}
	_ = p.s.output.Flush()
}

// PatchStdout replaces os.Stdout with a pipe that feeds a StdoutProxy, so
// plain fmt.Print output appears above the prompt. The returned restore
// function puts the original stdout back and drains the pipe; it must be
// called on every exit path and is safe to call more than once.
func (s *Session) PatchStdout(raw bool) (restore func(), err error) {
	proxy := s.StdoutProxy(raw)

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("patch stdout: %w", err)
	}

	orig := os.Stdout
	os.Stdout = w

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, readErr := r.Read(buf)
			if n > 0 {
				_, _ = proxy.Write(buf[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	var once sync.Once
	restore = func() {
		once.Do(func() {
			os.Stdout = orig
			_ = w.Close()
			<-done
			_ = r.Close()
			proxy.Flush()
		})
	}
	return restore, nil
}
