// Package prompt is the batteries-included layer over session: a one-call
// line reader with completion, history suggestions and sane key bindings.
// Applications that need custom chrome build their own session.Config
// instead; everything here is optional convenience.
package prompt

import (
	"os"

	"github.com/mattmrsa/goprompt/pkg/buffer"
	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/session"
	"github.com/mattmrsa/goprompt/pkg/term"
)

// Options configures a Reader.
type Options struct {
	// Prefix is printed before the input, e.g. "> ".
	Prefix string

	// Words, when non-empty, enables tab completion over this list.
	Words []string

	// History seeds the auto-suggestion ghost text.
	History []string

	// Title sets the terminal window title for the duration of the read.
	Title string

	// CompleteWhileTyping triggers completion on every keystroke instead of
	// only on tab.
	CompleteWhileTyping bool

	// IgnoreCase makes completion matching case-insensitive.
	IgnoreCase bool
}

// Reader owns the terminal plumbing for repeated prompt reads.
type Reader struct {
	opts    Options
	loop    *eventloop.PosixLoop
	input   *term.StdinInput
	output  *term.VT100Output
	session *session.Session
	suggest *HistorySuggest
}

// NewReader builds a reader over stdin and stdout.
func NewReader(opts Options) *Reader {
	r := &Reader{
		opts:    opts,
		loop:    eventloop.NewPosixLoop(),
		input:   term.NewStdinInput(os.Stdin),
		output:  term.NewVT100Output(os.Stdout, int(os.Stdout.Fd())),
		suggest: &HistorySuggest{Entries: append([]string(nil), opts.History...)},
	}

	var completer buffer.Completer
	if len(opts.Words) > 0 {
		completer = &WordCompleter{Words: opts.Words, IgnoreCase: opts.IgnoreCase}
	}

	bufOpts := []buffer.Option{
		buffer.WithAutoSuggest(r.suggest),
	}
	if completer != nil {
		bufOpts = append(bufOpts, buffer.WithCompleter(completer))
	}

	cfg := &session.Config{
		Buffers: map[string]*buffer.Buffer{
			session.DefaultBufferName: buffer.New(bufOpts...),
		},
		NewRenderer: func(out term.Output) session.Renderer {
			return NewLineRenderer(out, opts.Prefix)
		},
		NewKeyHandler: func(s *session.Session) session.KeyHandler {
			return NewLineKeys(s)
		},
		OnExit:              session.ActionRaise,
		OnAbort:             session.ActionRaise,
		CompleteWhileTyping: func() bool { return opts.CompleteWhileTyping },
		IgnoreCase:          func() bool { return opts.IgnoreCase },
	}
	if opts.Title != "" {
		cfg.GetTitle = func() string { return opts.Title }
	}

	r.session = session.New(cfg, r.loop, r.input, r.output)
	return r
}

// Read blocks until the user submits a line, aborts (session.ErrInterrupt)
// or signals end of input (session.ErrEOF). Submitted lines are added to the
// suggestion history.
func (r *Reader) Read() (string, error) {
	line, err := r.session.Run(session.RunOptions{ResetCurrentBuffer: true})
	if err != nil {
		return "", err
	}
	if line != "" {
		r.suggest.Entries = append(r.suggest.Entries, line)
	}
	return line, nil
}

// Session exposes the underlying session, e.g. for RunSubSession or
// PatchStdout.
func (r *Reader) Session() *session.Session {
	return r.session
}

// Close releases the event loop.
func (r *Reader) Close() error {
	return r.loop.Close()
}

// Read is the one-shot form: prompt once with opts and return the line.
func Read(opts Options) (string, error) {
	r := NewReader(opts)
	defer r.Close()
	return r.Read()
}
