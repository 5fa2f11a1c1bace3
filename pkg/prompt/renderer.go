package prompt

import (
	"fmt"

	"github.com/mattmrsa/goprompt/pkg/session"
	"github.com/mattmrsa/goprompt/pkg/term"
)

// LineRenderer draws a single-line prompt: prefix, buffer text, an optional
// dimmed auto-suggestion after the cursor, and the selected completion
// candidate. It redraws the whole line on every frame, which is plenty for a
// one-line prompt.
type LineRenderer struct {
	out    term.Output
	prefix string
}

// NewLineRenderer creates a renderer that prints prefix before the input.
func NewLineRenderer(out term.Output, prefix string) *LineRenderer {
	return &LineRenderer{out: out, prefix: prefix}
}

func (r *LineRenderer) Reset() {
	_ = r.out.Flush()
}

func (r *LineRenderer) Erase() {
	r.out.WriteRaw("\r\x1b[K")
	_ = r.out.Flush()
}

// RequestAbsoluteCursorPosition is a no-op: a single-line renderer never
// needs to know where on the screen it is.
func (r *LineRenderer) RequestAbsoluteCursorPosition() {}

func (r *LineRenderer) Render(s *session.Session, isDone bool) {
	b := s.CurrentBuffer()
	text := b.Text()

	r.out.WriteRaw("\r\x1b[K")
	r.out.WriteRaw(r.prefix)

	if isDone {
		r.out.Write(text)
		r.out.WriteRaw("\r\n")
		_ = r.out.Flush()
		return
	}

	r.out.Write(text)

	trailing := 0
	if sg := b.Suggestion(); sg != nil && b.CursorPosition() == len(text) {
		r.out.WriteRaw("\x1b[2m")
		r.out.Write(sg.Text)
		r.out.WriteRaw("\x1b[0m")
		trailing += len([]rune(sg.Text))
	}
	if c := b.CompleteState().Current(); c == nil && b.CompleteState() != nil {
		if n := len(b.CompleteState().Completions); n > 1 {
			hint := fmt.Sprintf(" (%d options)", n)
			r.out.WriteRaw("\x1b[2m")
			r.out.Write(hint)
			r.out.WriteRaw("\x1b[0m")
			trailing += len(hint)
		}
	}

	// Walk the cursor back from the end of the line.
	back := trailing + len([]rune(text[b.CursorPosition():]))
	if back > 0 {
		r.out.WriteRaw(fmt.Sprintf("\x1b[%dD", back))
	}
	_ = r.out.Flush()
}
