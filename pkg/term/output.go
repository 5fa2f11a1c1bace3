package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Output is the terminal output channel. Write sanitizes escape characters so
// program text cannot corrupt the screen; WriteRaw passes escape sequences
// through for callers that emit their own control codes.
type Output interface {
	Write(s string)
	WriteRaw(s string)
	Flush() error
}

// VT100Output buffers writes and emits them on Flush, the way the renderer
// expects: a frame is composed in full before a single terminal write.
type VT100Output struct {
	mu  sync.Mutex
	w   io.Writer
	buf strings.Builder
	fd  int
}

// NewVT100Output wraps a writer. fd is used for size queries; pass -1 when
// the writer is not a terminal.
func NewVT100Output(w io.Writer, fd int) *VT100Output {
	return &VT100Output{w: w, fd: fd}
}

// Write buffers ordinary text, replacing ESC so embedded sequences are shown
// rather than interpreted.
func (o *VT100Output) Write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf.WriteString(strings.ReplaceAll(s, "\x1b", "?"))
}

// WriteRaw buffers text without sanitizing.
func (o *VT100Output) WriteRaw(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf.WriteString(s)
}

// Flush writes everything buffered to the underlying writer.
func (o *VT100Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.buf.Len() == 0 {
		return nil
	}
	data := o.buf.String()
	o.buf.Reset()

	if _, err := io.WriteString(o.w, data); err != nil {
		return fmt.Errorf("failed to flush terminal output: %w", err)
	}
	return nil
}

// Size returns the terminal dimensions, or an error when the output is not a
// terminal.
func (o *VT100Output) Size() (width, height int, err error) {
	if o.fd < 0 {
		return 0, 0, fmt.Errorf("output is not a terminal")
	}
	return term.GetSize(o.fd)
}

// SetTitle sets the terminal window title.
func (o *VT100Output) SetTitle(title string) {
	o.WriteRaw("\x1b]2;" + strings.NewReplacer("\x1b", "", "\x07", "").Replace(title) + "\x07")
}

// ClearTitle resets the terminal window title.
func (o *VT100Output) ClearTitle() {
	o.SetTitle("")
}
