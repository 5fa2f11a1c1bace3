package session

import (
	"sync"
	"time"

	"github.com/mattmrsa/goprompt/pkg/eventloop"
	"github.com/mattmrsa/goprompt/pkg/term"
)

// fakeLoop records executor and control-thread scheduling so tests can step
// through worker/callback interleavings deterministically.
type fakeLoop struct {
	workers []func()
	calls   []fakeCall
	stops   int
	runErr  error

	// script, when set, runs at the start of Run with the session's
	// callback bridge.
	script func(cbs eventloop.Callbacks)
}

type fakeCall struct {
	fn       func()
	deadline time.Time
}

func (l *fakeLoop) Run(input term.Input, cbs eventloop.Callbacks) error {
	if l.script != nil {
		l.script(cbs)
	}
	// Drain scheduled work until a stop is requested or nothing remains.
	for l.stops == 0 && (len(l.workers) > 0 || len(l.calls) > 0) {
		l.runWorkers()
		l.runCalls()
	}
	return l.runErr
}

func (l *fakeLoop) RunInExecutor(fn func()) {
	l.workers = append(l.workers, fn)
}

func (l *fakeLoop) CallFromExecutor(fn func(), maxPostponeUntil time.Time) {
	l.calls = append(l.calls, fakeCall{fn: fn, deadline: maxPostponeUntil})
}

func (l *fakeLoop) Stop()                 { l.stops++ }
func (l *fakeLoop) AddReader(int, func()) {}
func (l *fakeLoop) RemoveReader(int)      {}
func (l *fakeLoop) Close() error          { return nil }

// runWorkers runs every queued background task.
func (l *fakeLoop) runWorkers() {
	workers := l.workers
	l.workers = nil
	for _, fn := range workers {
		fn()
	}
}

// runCalls runs every queued control-thread callback.
func (l *fakeLoop) runCalls() {
	calls := l.calls
	l.calls = nil
	for _, c := range calls {
		c.fn()
	}
}

// fakeRenderer records render activity.
type fakeRenderer struct {
	renders       []bool // isDone flag per paint
	resets        int
	erases        int
	cursorQueries int
}

func (r *fakeRenderer) Reset()                         { r.resets++ }
func (r *fakeRenderer) Erase()                         { r.erases++ }
func (r *fakeRenderer) RequestAbsoluteCursorPosition() { r.cursorQueries++ }
func (r *fakeRenderer) Render(s *Session, isDone bool) {
	r.renders = append(r.renders, isDone)
}

// fakeInput counts scoped mode acquisitions.
type fakeInput struct {
	mu            sync.Mutex
	rawActive     int
	rawAcquired   int
	cookedActive  int
	cookedAcquire int
}

func (f *fakeInput) RawMode() (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawActive++
	f.rawAcquired++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.rawActive--
		})
	}, nil
}

func (f *fakeInput) CookedMode() (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookedActive++
	f.cookedAcquire++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.cookedActive--
		})
	}, nil
}

func (f *fakeInput) Fd() int                  { return -1 }
func (f *fakeInput) Read([]byte) (int, error) { return 0, nil }

// fakeOutput records write fragments and groups them into flush events.
type fakeOutput struct {
	mu      sync.Mutex
	frags   []string
	flushes []string
}

func (o *fakeOutput) Write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frags = append(o.frags, s)
}

func (o *fakeOutput) WriteRaw(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frags = append(o.frags, s)
}

func (o *fakeOutput) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.frags) == 0 {
		return nil
	}
	event := ""
	for _, f := range o.frags {
		event += f
	}
	o.frags = nil
	o.flushes = append(o.flushes, event)
	return nil
}

// newTestSession builds a session over all the fakes.
func newTestSession(cfg *Config) (*Session, *fakeLoop, *fakeRenderer, *fakeInput, *fakeOutput) {
	loop := &fakeLoop{}
	renderer := &fakeRenderer{}
	input := &fakeInput{}
	output := &fakeOutput{}

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.NewRenderer == nil {
		cfg.NewRenderer = func(term.Output) Renderer { return renderer }
	}
	s := New(cfg, loop, input, output)
	return s, loop, renderer, input, output
}
