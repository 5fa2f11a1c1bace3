// Package session is the control core of an interactive terminal session. It
// ties together an event loop, editable buffers, a renderer and background
// completion/suggestion work, and supports nesting one session inside
// another. The rendering algorithm, key-binding dispatch and buffer editing
// internals live behind the Renderer, KeyHandler and buffer boundaries; this
// package owns lifecycle, redraw scheduling and concurrency.
package session

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/mattmrsa/goprompt/pkg/buffer"
	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/logging"
	"github.com/mattmrsa/goprompt/pkg/term"
)

// maxRedrawPostpone bounds how long the event loop may delay a scheduled
// repaint in favor of pending input.
const maxRedrawPostpone = 500 * time.Millisecond

// Session drives one interactive terminal session, top-level or nested.
//
// All methods must be called from the event loop's control thread, with one
// exception: Invalidate is safe from any goroutine.
type Session struct {
	cfg      *Config
	loop     eventloop.Loop
	input    term.Input
	output   term.Output
	renderer Renderer
	keys     KeyHandler

	registry    *bufferRegistry
	focus       *focusStack
	searchState *SearchState
	completers  map[string]*completionActor
	suggesters  map[string]*suggestionActor

	// running and invalidated are the only fields touched off the control
	// thread (by StdoutProxy and Invalidate respectively).
	running     atomic.Bool
	invalidated atomic.Bool

	exitFlag  bool
	abortFlag bool
	returnFn  func() (string, error)

	// renderCounter increments once per actual paint; renderers may use it
	// as a cache key within one frame.
	renderCounter int

	child  *Session
	parent *Session
}

// New creates a session. The loop, input and output are borrowed, not owned:
// a nested session shares its parent's.
func New(cfg *Config, loop eventloop.Loop, input term.Input, output term.Output) *Session {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Session{
		cfg:        cfg,
		loop:       loop,
		input:      input,
		output:     output,
		registry:   newBufferRegistry(),
		completers: make(map[string]*completionActor),
		suggesters: make(map[string]*suggestionActor),
	}

	if cfg.NewRenderer != nil {
		s.renderer = cfg.NewRenderer(output)
	}
	if s.renderer == nil {
		s.renderer = nopRenderer{}
	}
	if cfg.NewKeyHandler != nil {
		s.keys = cfg.NewKeyHandler(s)
	}
	if s.keys == nil {
		s.keys = nopKeyHandler{}
	}

	s.focus = newFocusStack(DefaultBufferName)
	for name, b := range cfg.Buffers {
		s.AddBuffer(name, b, false)
	}
	if _, ok := s.registry.get(DefaultBufferName); !ok {
		s.AddBuffer(DefaultBufferName, buffer.New(), false)
	}
	if cfg.InitialFocus != "" {
		s.focus.replace(cfg.InitialFocus)
	}

	s.Reset(false)
	cfg.fire(cfg.OnInitialize, s)
	return s
}

// AddBuffer registers a buffer together with its completion and suggestion
// actors, and wires text insertion to them.
func (s *Session) AddBuffer(name string, b *buffer.Buffer, focus bool) {
	s.registry.add(name, b)
	if focus {
		s.focus.replace(name)
	}

	comp := &completionActor{s: s, buf: b}
	sugg := &suggestionActor{s: s, buf: b}
	s.completers[name] = comp
	s.suggesters[name] = sugg

	b.OnTextInsert(func() {
		if b.Completer() != nil && s.cfg.completeWhileTyping() {
			comp.trigger(completionTrigger{
				event: buffer.CompleteEvent{TextInserted: true},
			})
		}
		if b.AutoSuggest() != nil {
			sugg.trigger()
		}
		s.cfg.fire(s.cfg.OnBufferChanged, s)
	})
}

// RunOptions configures one Run call.
type RunOptions struct {
	// ResetCurrentBuffer clears the focused buffer's content before reading.
	ResetCurrentBuffer bool

	// PreRun is invoked right after the reset, before the first paint.
	PreRun func()
}

// Run reads input until a return value, exit or abort is observed. The
// terminal is switched to raw mode for the duration and restored on every
// exit path; the renderer is reset (leaving any alternate screen) and the
// stop hook fired in a cleanup block that always executes.
func (s *Session) Run(opts RunOptions) (result string, err error) {
	logging.Debugf("session: run starting")
	s.running.Store(true)
	defer func() {
		s.renderer.Reset()
		s.cfg.fire(s.cfg.OnStop, s)
		s.running.Store(false)
		logging.Debugf("session: run finished (err=%v)", err)
	}()

	s.cfg.fire(s.cfg.OnStart, s)
	s.Reset(opts.ResetCurrentBuffer)

	if opts.PreRun != nil {
		opts.PreRun()
	}

	release, rawErr := s.input.RawMode()
	if rawErr != nil {
		return "", fmt.Errorf("session run: %w", rawErr)
	}
	defer release()

	s.applyTitle()
	s.renderer.RequestAbsoluteCursorPosition()
	s.redraw()

	if loopErr := s.loop.Run(s.input, s.Callbacks()); loopErr != nil {
		return "", fmt.Errorf("session run: %w", loopErr)
	}
	return s.ReturnValue()
}

// Reset re-initializes transient state for reading the next input. Buffer
// contents and the focus stack deliberately survive: with several buffers,
// their text must persist across successive Run calls.
func (s *Session) Reset(resetCurrentBuffer bool) {
	s.exitFlag = false
	s.abortFlag = false
	s.returnFn = nil

	s.renderer.Reset()
	s.keys.Reset()

	if resetCurrentBuffer {
		s.CurrentBuffer().Reset()
	}

	s.searchState = NewSearchState(s.cfg.IgnoreCase)
	s.cfg.fire(s.cfg.OnReset, s)
}

// Invalidate schedules a repaint. Thread safe; this is the one entry point
// background workers may use directly. Any number of calls between two
// repaints coalesce into a single deferred repaint that executes at most
// 0.5s after the first call.
func (s *Session) Invalidate() {
	first := s.invalidated.CompareAndSwap(false, true)
	s.cfg.fire(s.cfg.OnInvalidate, s)
	if !first || s.loop == nil {
		return
	}

	deadline := time.Now().Add(maxRedrawPostpone)
	s.loop.CallFromExecutor(func() {
		s.invalidated.Store(false)
		s.redraw()
	}, deadline)
}

// RequestRedraw is a deprecated alias for Invalidate.
func (s *Session) RequestRedraw() {
	s.Invalidate()
}

// redraw paints immediately. Not thread safe; from other goroutines use
// Invalidate. A session with an active child never paints: the child owns
// the screen until it finishes.
func (s *Session) redraw() {
	if s.running.Load() && s.child == nil {
		s.renderCounter++
		s.renderer.Render(s, s.IsDone())
	}
}

// onResize erases the output and restarts the cursor-position query/redraw
// cycle. The order matters: erase, query, then draw.
func (s *Session) onResize() {
	s.renderer.Erase()
	s.renderer.RequestAbsoluteCursorPosition()
	s.redraw()
}

// Exit handles an end-of-input request (Control-D): paint the exiting state,
// then apply the configured exit policy.
func (s *Session) Exit() {
	s.exitFlag = true
	s.redraw()

	switch s.cfg.OnExit {
	case ActionRaise:
		s.setReturnCallable(func() (string, error) { return "", ErrEOF })
	case ActionRetry:
		s.retry()
	case ActionReturnEmpty:
		s.SetReturnValue("")
	}
}

// Abort handles an interrupt request (Control-C), analogous to Exit.
func (s *Session) Abort() {
	s.abortFlag = true
	s.redraw()

	switch s.cfg.OnAbort {
	case ActionRaise:
		s.setReturnCallable(func() (string, error) { return "", ErrInterrupt })
	case ActionRetry:
		s.retry()
	case ActionReturnEmpty:
		s.SetReturnValue("")
	}
}

// SetExit is a deprecated alias for Exit.
func (s *Session) SetExit() { s.Exit() }

// SetAbort is a deprecated alias for Abort.
func (s *Session) SetAbort() { s.Abort() }

// retry re-arms the session for another read without leaving the run loop.
// This is the "ignore and keep prompting" mode.
func (s *Session) retry() {
	s.Reset(false)
	s.renderer.RequestAbsoluteCursorPosition()
	s.CurrentBuffer().Reset()
}

// SetReturnValue resolves the session with value and stops the event loop.
// One more repaint happens first so the done state is visible.
func (s *Session) SetReturnValue(value string) {
	s.setReturnCallable(func() (string, error) { return value, nil })
	s.redraw()
}

// setReturnCallable installs a deferred value producer. Termination
// conditions raise only when the producer is invoked, never here, so a final
// done frame can still be painted.
func (s *Session) setReturnCallable(fn func() (string, error)) {
	s.returnFn = fn
	if s.loop != nil {
		s.loop.Stop()
	}
}

// ReturnValue invokes the installed producer. It can return an error (ErrEOF,
// ErrInterrupt); callers must propagate it.
func (s *Session) ReturnValue() (string, error) {
	if s.returnFn == nil {
		return "", nil
	}
	return s.returnFn()
}

// IsExiting is true when the exit flag has been set.
func (s *Session) IsExiting() bool { return s.exitFlag }

// IsAborting is true when the abort flag has been set.
func (s *Session) IsAborting() bool { return s.abortFlag }

// IsReturning is true when a return value has been set.
func (s *Session) IsReturning() bool { return s.returnFn != nil }

// IsDone is the sole termination predicate: exiting, aborting or returning.
func (s *Session) IsDone() bool {
	return s.IsExiting() || s.IsAborting() || s.IsReturning()
}

// RenderCounter returns the number of paints so far.
func (s *Session) RenderCounter() int { return s.renderCounter }

// CurrentBufferName returns the focused buffer's name, or "".
func (s *Session) CurrentBufferName() string {
	return s.focus.current()
}

// CurrentBuffer returns the focused buffer. When nothing meaningful has
// focus it returns the read-only dummy buffer, never nil.
func (s *Session) CurrentBuffer() *buffer.Buffer {
	if name := s.focus.current(); name != "" {
		if b, ok := s.registry.get(name); ok {
			return b
		}
	}
	return s.registry.dummy()
}

// Buffer looks up a registered buffer by name.
func (s *Session) Buffer(name string) (*buffer.Buffer, bool) {
	return s.registry.get(name)
}

// Focus makes name the current buffer, replacing the top of the focus stack.
func (s *Session) Focus(name string) error {
	if _, ok := s.registry.get(name); !ok {
		return fmt.Errorf("cannot focus unknown buffer %q", name)
	}
	s.focus.replace(name)
	return nil
}

// PushFocus focuses name, remembering the previous focus for PopFocus.
func (s *Session) PushFocus(name string) error {
	if _, ok := s.registry.get(name); !ok {
		return fmt.Errorf("cannot focus unknown buffer %q", name)
	}
	s.focus.push(name)
	return nil
}

// PopFocus restores the previously focused buffer.
func (s *Session) PopFocus() {
	s.focus.pop()
}

// SearchState returns the current search state.
func (s *Session) SearchState() *SearchState {
	return s.searchState
}

// IsSearching is true while the search buffer has focus.
func (s *Session) IsSearching() bool {
	return s.CurrentBufferName() == SearchBufferName
}

// InPasteMode evaluates the live paste-mode predicate.
func (s *Session) InPasteMode() bool {
	return s.cfg.PasteMode != nil && s.cfg.PasteMode()
}

// TerminalTitle returns the title to display, or "" to leave the terminal's
// title unchanged.
func (s *Session) TerminalTitle() string {
	if s.cfg.GetTitle == nil {
		return ""
	}
	return s.cfg.GetTitle()
}

func (s *Session) applyTitle() {
	title := s.TerminalTitle()
	if title == "" {
		return
	}
	if t, ok := s.output.(interface{ SetTitle(string) }); ok {
		t.SetTitle(title)
	}
}

// StartCompletion delegates to the buffer's completion actor. A no-op while
// a completion task is already in flight for that buffer.
func (s *Session) StartCompletion(opts CompletionOptions) {
	name := opts.BufferName
	if name == "" {
		name = s.CurrentBufferName()
	}
	if actor, ok := s.completers[name]; ok {
		actor.trigger(completionTrigger{
			selectFirst:      opts.SelectFirst,
			selectLast:       opts.SelectLast,
			insertCommonPart: opts.InsertCommonPart,
			event:            buffer.CompleteEvent{CompletionRequested: true},
		})
	}
}

// CompletionOptions configures StartCompletion.
type CompletionOptions struct {
	// BufferName selects the buffer; "" means the focused one.
	BufferName string

	// SelectFirst / SelectLast immediately apply that candidate.
	SelectFirst bool
	SelectLast  bool

	// InsertCommonPart inserts the prefix shared by all candidates and
	// restarts completion instead of presenting a list.
	InsertCommonPart bool
}

// RunInTerminal suspends the UI, runs fn with the terminal in cooked mode,
// then restores raw mode and repaints. Output written by fn scrolls above
// the prompt. When renderDone is set the UI is first painted in its done
// state instead of being erased.
func (s *Session) RunInTerminal(fn func() error, renderDone bool) error {
	if renderDone {
		s.returnFn = func() (string, error) { return "", nil }
		s.redraw()
		s.renderer.Reset()
	} else {
		s.renderer.Erase()
	}

	release, err := s.input.CookedMode()
	if err != nil {
		s.returnFn = nil
		return fmt.Errorf("run in terminal: %w", err)
	}

	var fnErr error
	func() {
		defer release()
		defer func() { s.returnFn = nil }()
		fnErr = fn()
	}()

	s.renderer.Reset()
	s.renderer.RequestAbsoluteCursorPosition()
	s.redraw()

	return fnErr
}

// RunSystemCommand runs a shell command while the prompt is hidden. When it
// finishes, its output has scrolled above the prompt.
func (s *Session) RunSystemCommand(command string) error {
	return s.RunInTerminal(func() error {
		cmd := systemCommand(command)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			logging.Debugf("session: system command failed: %v", err)
		}

		fmt.Fprint(os.Stdout, "\nPress ENTER to continue...")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		return nil
	}, false)
}

func systemCommand(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/c", command)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return exec.Command(shell, "-c", command)
}

// Callbacks returns the bridge the event loop uses to talk to this session
// (or, while a sub-session is active, to the deepest child).
func (s *Session) Callbacks() eventloop.Callbacks {
	return &sessionCallbacks{root: s}
}

// nopRenderer draws nothing. Used for headless sessions and as the default
// when no renderer factory is configured.
type nopRenderer struct{}

func (nopRenderer) Reset()                         {}
func (nopRenderer) Erase()                         {}
func (nopRenderer) RequestAbsoluteCursorPosition() {}
func (nopRenderer) Render(*Session, bool)          {}

// nopKeyHandler drops every key.
type nopKeyHandler struct{}

func (nopKeyHandler) FeedKey(eventloop.KeyPress) {}
func (nopKeyHandler) Reset()                     {}
