package prompt

import (
	"unicode/utf8"

	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/session"
)

// Control bytes the handler cares about.
const (
	ctrlC     = 0x03
	ctrlD     = 0x04
	tab       = 0x09
	ctrlU     = 0x15
	ctrlZ     = 0x1a
	escape    = 0x1b
	backspace = 0x7f
)

// LineKeys is a minimal line-editing key handler: printable input, enter,
// backspace, arrow movement, tab completion and the usual control keys.
// Escape sequences may arrive split across reads, so a partial sequence is
// carried between FeedKey calls.
type LineKeys struct {
	s   *session.Session
	esc []byte // partial escape sequence, nil when not inside one
}

// NewLineKeys creates the handler for s.
func NewLineKeys(s *session.Session) *LineKeys {
	return &LineKeys{s: s}
}

func (k *LineKeys) Reset() {
	k.esc = nil
}

func (k *LineKeys) FeedKey(key eventloop.KeyPress) {
	data := key.Data
	if len(k.esc) > 0 {
		data = append(k.esc, data...)
		k.esc = nil
	}

	for len(data) > 0 {
		n := k.handle(data)
		if n == 0 {
			// Incomplete escape sequence; wait for more bytes.
			k.esc = data
			return
		}
		data = data[n:]
	}
	k.s.Invalidate()
}

// handle consumes one key from data and returns how many bytes it used.
// Returning 0 means the data is an incomplete sequence.
func (k *LineKeys) handle(data []byte) int {
	b := k.s.CurrentBuffer()

	switch data[0] {
	case '\r', '\n':
		k.s.SetReturnValue(b.Text())
		return 1

	case ctrlC:
		k.s.Abort()
		return 1

	case ctrlD:
		// End of input only on an empty line, matching shell behavior.
		if b.Text() == "" {
			k.s.Exit()
		}
		return 1

	case tab:
		k.s.StartCompletion(session.CompletionOptions{InsertCommonPart: true})
		return 1

	case ctrlU:
		b.DeleteBeforeCursor(b.CursorPosition())
		return 1

	case ctrlZ:
		k.s.SuspendToBackground()
		return 1

	case backspace, 0x08:
		if before := b.Document().TextBeforeCursor(); before != "" {
			_, size := utf8.DecodeLastRuneInString(before)
			b.DeleteBeforeCursor(size)
		}
		return 1

	case escape:
		return k.handleEscape(data)
	}

	// Printable input: take the longest run of non-control bytes in one
	// insert, so pasted text lands as a single operation.
	end := 0
	for end < len(data) && data[end] >= 0x20 && data[end] != backspace {
		end++
	}
	if end == 0 {
		return 1 // unknown control byte, drop it
	}
	b.InsertText(string(data[:end]))
	return end
}

func (k *LineKeys) handleEscape(data []byte) int {
	if len(data) == 1 {
		return 0
	}
	if data[1] != '[' {
		// Lone escape or an alt-combination we do not bind.
		return 2
	}
	if len(data) == 2 {
		return 0
	}

	b := k.s.CurrentBuffer()
	switch data[2] {
	case 'C': // right
		text := b.Text()
		if b.CursorPosition() >= len(text) {
			// At the end of the line the right arrow accepts the
			// pending suggestion.
			if sg := b.Suggestion(); sg != nil {
				b.InsertText(sg.Text)
			}
			return 3
		}
		_, size := utf8.DecodeRuneInString(text[b.CursorPosition():])
		b.SetCursorPosition(b.CursorPosition() + size)

	case 'D': // left
		if before := b.Document().TextBeforeCursor(); before != "" {
			_, size := utf8.DecodeLastRuneInString(before)
			b.SetCursorPosition(b.CursorPosition() - size)
		}

	case 'A': // up: previous completion candidate
		b.CompletePrevious()

	case 'B': // down: next completion candidate
		b.CompleteNext()
	}
	return 3
}
