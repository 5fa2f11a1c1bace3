package session

import (
	"github.com/mattmrsa/goprompt/pkg/buffer"
	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/term"
)

// Action is the policy applied when the user exits (Control-D) or aborts
// (Control-C) a session. Exactly one action applies per event.
type Action int

const (
	// ActionRaise surfaces the condition as an error from ReturnValue
	// (ErrEOF for exit, ErrInterrupt for abort).
	ActionRaise Action = iota

	// ActionRetry silently resets the session and keeps prompting.
	ActionRetry

	// ActionReturnEmpty resolves the session with an empty return value.
	ActionReturnEmpty
)

// KeyHandler is the key-binding dispatch boundary. The session feeds raw key
// presses to it; how they map to editing commands is not this package's
// concern. Implementations receive their session handle at construction and
// must not retain ownership of it.
type KeyHandler interface {
	FeedKey(key eventloop.KeyPress)
	Reset()
}

// Renderer is the drawing boundary. The session decides when to draw; the
// renderer decides how.
type Renderer interface {
	// Reset restores the terminal to a neutral state, leaving any alternate
	// screen mode. Called in the cleanup path of every run.
	Reset()

	// Erase clears the rendered UI region.
	Erase()

	// RequestAbsoluteCursorPosition starts a new cursor-position query/redraw
	// cycle, needed after the screen was disturbed.
	RequestAbsoluteCursorPosition()

	// Render draws the session's current state. isDone selects the final
	// "done" presentation.
	Render(s *Session, isDone bool)
}

// Config fixes a session's collaborators and policies at construction time.
type Config struct {
	// Buffers to register, by name. A read-only dummy buffer is always added
	// under DummyBufferName; a default buffer under DefaultBufferName is
	// created when none is given.
	Buffers map[string]*buffer.Buffer

	// InitialFocus names the buffer focused at start. Defaults to
	// DefaultBufferName.
	InitialFocus string

	// NewKeyHandler builds the key dispatch for this session. Nil installs a
	// handler that drops every key.
	NewKeyHandler func(s *Session) KeyHandler

	// NewRenderer builds the renderer over the session's output. Nil
	// installs a renderer that draws nothing (headless use, tests).
	NewRenderer func(out term.Output) Renderer

	// OnExit and OnAbort select the termination policy per event.
	OnExit  Action
	OnAbort Action

	// CompleteWhileTyping gates completion triggered by text insertion.
	// Evaluated live on every keystroke; nil means never.
	CompleteWhileTyping func() bool

	// IgnoreCase is the live case-sensitivity policy for searching.
	// Re-evaluated per query; nil means case-sensitive.
	IgnoreCase func() bool

	// PasteMode, when true, disables expensive per-keystroke behavior.
	PasteMode func() bool

	// GetTitle supplies the terminal title, or "" to leave it unchanged.
	GetTitle func() string

	// Lifecycle hooks. All optional, all invoked on the control thread
	// except OnInvalidate, which fires on whichever goroutine called
	// Invalidate.
	OnInitialize    func(s *Session)
	OnStart         func(s *Session)
	OnStop          func(s *Session)
	OnReset         func(s *Session)
	OnInvalidate    func(s *Session)
	OnBufferChanged func(s *Session)
	OnInputTimeout  func(s *Session)
}

func (c *Config) fire(hook func(s *Session), s *Session) {
	if hook != nil {
		hook(s)
	}
}

func (c *Config) completeWhileTyping() bool {
	return c.CompleteWhileTyping != nil && c.CompleteWhileTyping()
}

func (c *Config) ignoreCase() bool {
	return c.IgnoreCase != nil && c.IgnoreCase()
}
