package prompt

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattmrsa/goprompt/pkg/buffer"
	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/session"
	"github.com/mattmrsa/goprompt/pkg/term"
)

func newKeysSession(t *testing.T, cfg *session.Config) (*session.Session, *LineKeys) {
	t.Helper()
	if cfg == nil {
		cfg = &session.Config{}
	}
	loop := eventloop.NewPosixLoop()
	t.Cleanup(func() { loop.Close() })

	out := term.NewVT100Output(&bytes.Buffer{}, -1)
	s := session.New(cfg, loop, term.NewStdinInput(os.Stdin), out)
	return s, NewLineKeys(s)
}

func feed(k *LineKeys, data string) {
	k.FeedKey(eventloop.KeyPress{Data: []byte(data)})
}

func TestTypingAndBackspace(t *testing.T) {
	s, k := newKeysSession(t, nil)

	feed(k, "hé")
	assert.Equal(t, "hé", s.CurrentBuffer().Text())

	// Backspace removes the whole multibyte rune.
	feed(k, "\x7f")
	assert.Equal(t, "h", s.CurrentBuffer().Text())
	feed(k, "\x7f")
	feed(k, "\x7f") // empty buffer: no-op
	assert.Equal(t, "", s.CurrentBuffer().Text())
}

func TestEnterSubmitsLine(t *testing.T) {
	s, k := newKeysSession(t, nil)

	feed(k, "hello\r")
	require.True(t, s.IsReturning())

	value, err := s.ReturnValue()
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestControlCAborts(t *testing.T) {
	s, k := newKeysSession(t, &session.Config{OnAbort: session.ActionRaise})

	feed(k, "\x03")
	assert.True(t, s.IsAborting())
	_, err := s.ReturnValue()
	assert.ErrorIs(t, err, session.ErrInterrupt)
}

func TestControlDExitsOnlyWhenEmpty(t *testing.T) {
	s, k := newKeysSession(t, &session.Config{OnExit: session.ActionRaise})

	feed(k, "x\x04")
	assert.False(t, s.IsExiting())

	feed(k, "\x7f\x04")
	assert.True(t, s.IsExiting())
}

func TestArrowMovement(t *testing.T) {
	s, k := newKeysSession(t, nil)
	b := s.CurrentBuffer()

	feed(k, "ab")
	feed(k, "\x1b[D")
	assert.Equal(t, 1, b.CursorPosition())

	// The sequence may arrive split across reads.
	feed(k, "\x1b")
	feed(k, "[D")
	assert.Equal(t, 0, b.CursorPosition())

	feed(k, "\x1b[C")
	assert.Equal(t, 1, b.CursorPosition())
}

func TestControlUKillsLineBeforeCursor(t *testing.T) {
	s, k := newKeysSession(t, nil)

	feed(k, "keep me")
	feed(k, "\x1b[D\x1b[D\x1b[D") // cursor before " me"... before 'e' ' ' 'm'
	feed(k, "\x15")
	assert.Equal(t, " me", s.CurrentBuffer().Text())
}

func TestRightArrowAcceptsSuggestion(t *testing.T) {
	s, k := newKeysSession(t, nil)
	b := s.CurrentBuffer()

	feed(k, "git ")
	b.SetSuggestion(&buffer.Suggestion{Text: "status"})

	feed(k, "\x1b[C")
	assert.Equal(t, "git status", b.Text())
	assert.Nil(t, b.Suggestion())
}

func TestUpDownCycleCompletions(t *testing.T) {
	s, k := newKeysSession(t, nil)
	b := s.CurrentBuffer()

	feed(k, "f")
	b.SetCompletions([]buffer.Completion{
		{Text: "foo", StartPosition: -1},
		{Text: "fig", StartPosition: -1},
	}, false, false)

	feed(k, "\x1b[B")
	assert.Equal(t, "foo", b.Text())
	feed(k, "\x1b[B")
	assert.Equal(t, "fig", b.Text())
	feed(k, "\x1b[A")
	assert.Equal(t, "foo", b.Text())
}

func TestResetDropsPartialEscape(t *testing.T) {
	s, k := newKeysSession(t, nil)

	feed(k, "a")
	feed(k, "\x1b")
	k.Reset()
	feed(k, "[D") // no longer part of an escape sequence: plain text
	assert.Equal(t, "a[D", s.CurrentBuffer().Text())
}
