// Package buffer holds the editable text state a session orchestrates: text
// plus cursor, an optional completer/auto-suggest pair, and the uncommitted
// completion and suggestion results produced by background tasks.
//
// Buffers are not safe for concurrent use. All mutation happens on the
// session's control thread; background workers only ever see an immutable
// Document snapshot.
package buffer

// Buffer is one editable text area.
type Buffer struct {
	text   string
	cursor int

	completer   Completer
	autoSuggest AutoSuggest

	completeState *CompleteState
	suggestion    *Suggestion

	onTextInsert []func()

	readOnly bool
}

// Option configures a new Buffer.
type Option func(*Buffer)

// WithCompleter attaches a completion provider.
func WithCompleter(c Completer) Option {
	return func(b *Buffer) { b.completer = c }
}

// WithAutoSuggest attaches a suggestion provider.
func WithAutoSuggest(a AutoSuggest) Option {
	return func(b *Buffer) { b.autoSuggest = a }
}

// WithText sets the initial text, cursor at the end.
func WithText(text string) Option {
	return func(b *Buffer) {
		b.text = text
		b.cursor = len(text)
	}
}

// ReadOnly makes every mutating operation a no-op. Used for the dummy buffer.
func ReadOnly() Option {
	return func(b *Buffer) { b.readOnly = true }
}

// New creates a Buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Text returns the current text.
func (b *Buffer) Text() string { return b.text }

// CursorPosition returns the current cursor offset in bytes.
func (b *Buffer) CursorPosition() int { return b.cursor }

// Document returns a snapshot of text and cursor.
func (b *Buffer) Document() Document {
	return Document{Text: b.text, CursorPosition: b.cursor}
}

// Completer returns the attached completion provider, or nil.
func (b *Buffer) Completer() Completer { return b.completer }

// AutoSuggest returns the attached suggestion provider, or nil.
func (b *Buffer) AutoSuggest() AutoSuggest { return b.autoSuggest }

// CompleteState returns the uncommitted completion state, or nil.
func (b *Buffer) CompleteState() *CompleteState { return b.completeState }

// Suggestion returns the current suggestion, or nil.
func (b *Buffer) Suggestion() *Suggestion { return b.suggestion }

// SetSuggestion stores a suggestion produced by an auto-suggest task.
func (b *Buffer) SetSuggestion(s *Suggestion) {
	if b.readOnly {
		return
	}
	b.suggestion = s
}

// OnTextInsert registers a hook fired after every InsertText. The session
// uses this to fan text changes out to the async task actors.
func (b *Buffer) OnTextInsert(fn func()) {
	b.onTextInsert = append(b.onTextInsert, fn)
}

// InsertText inserts typed text at the cursor. Any pending completion state
// and suggestion are dropped, then the text-insert hooks fire.
func (b *Buffer) InsertText(text string) {
	if b.readOnly || text == "" {
		return
	}
	b.text = b.text[:b.cursor] + text + b.text[b.cursor:]
	b.cursor += len(text)
	b.completeState = nil
	b.suggestion = nil

	for _, fn := range b.onTextInsert {
		fn()
	}
}

// DeleteBeforeCursor removes up to count bytes before the cursor and returns
// the deleted text.
func (b *Buffer) DeleteBeforeCursor(count int) string {
	if b.readOnly || count <= 0 {
		return ""
	}
	if count > b.cursor {
		count = b.cursor
	}
	deleted := b.text[b.cursor-count : b.cursor]
	b.text = b.text[:b.cursor-count] + b.text[b.cursor:]
	b.cursor -= count
	b.completeState = nil
	b.suggestion = nil
	return deleted
}

// SetCursorPosition moves the cursor, clamped to the text bounds.
func (b *Buffer) SetCursorPosition(pos int) {
	if b.readOnly {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.text) {
		pos = len(b.text)
	}
	b.cursor = pos
}

// SetCompletions installs the candidates produced by a completion task.
// goToFirst or goToLast immediately applies that candidate to the text, the
// way accepting it from a menu would.
func (b *Buffer) SetCompletions(completions []Completion, goToFirst, goToLast bool) {
	if b.readOnly {
		return
	}
	state := &CompleteState{
		Document:    b.Document(),
		Completions: completions,
		Index:       -1,
	}
	b.completeState = state

	switch {
	case goToFirst && len(completions) > 0:
		b.applyCompletion(state, 0)
	case goToLast && len(completions) > 0:
		b.applyCompletion(state, len(completions)-1)
	}
}

// CompleteNext selects and applies the next candidate, wrapping around.
func (b *Buffer) CompleteNext() {
	if b.completeState == nil || len(b.completeState.Completions) == 0 {
		return
	}
	index := (b.completeState.Index + 1) % len(b.completeState.Completions)
	b.applyCompletion(b.completeState, index)
}

// CompletePrevious selects and applies the previous candidate.
func (b *Buffer) CompletePrevious() {
	if b.completeState == nil || len(b.completeState.Completions) == 0 {
		return
	}
	index := b.completeState.Index - 1
	if index < 0 {
		index = len(b.completeState.Completions) - 1
	}
	b.applyCompletion(b.completeState, index)
}

// CancelCompletion drops the completion state without touching the text.
func (b *Buffer) CancelCompletion() {
	b.completeState = nil
}

// applyCompletion rewrites the text for the candidate at index. This mutates
// text directly rather than going through InsertText: cycling through a menu
// must not re-fire the text-insert hooks.
func (b *Buffer) applyCompletion(state *CompleteState, index int) {
	// Undo the previously applied candidate first.
	base := state.Document
	c := state.Completions[index]

	overlap := -c.StartPosition
	if overlap < 0 || overlap > base.CursorPosition {
		return
	}
	before := base.Text[:base.CursorPosition-overlap]
	after := base.Text[base.CursorPosition:]

	b.text = before + c.Text + after
	b.cursor = len(before) + len(c.Text)
	state.Index = index
	b.completeState = state
	b.suggestion = nil
}

// Reset clears text, cursor, completion state and suggestion.
func (b *Buffer) Reset() {
	if b.readOnly {
		return
	}
	b.text = ""
	b.cursor = 0
	b.completeState = nil
	b.suggestion = nil
}
