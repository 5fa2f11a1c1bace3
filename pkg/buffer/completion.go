package buffer

import "strings"

// Completion is one candidate produced by a Completer. StartPosition is zero
// or negative: it counts how many characters before the cursor the completion
// replaces.
type Completion struct {
	Text          string
	StartPosition int
	Display       string
}

// DisplayText returns the text to show in a completion menu.
func (c Completion) DisplayText() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Text
}

// CompleteEvent describes why completions were requested.
type CompleteEvent struct {
	// TextInserted is set when the request came from typing.
	TextInserted bool
	// CompletionRequested is set when the user explicitly asked (e.g. Tab).
	CompletionRequested bool
}

// Completer produces completion candidates for a document snapshot. The call
// runs on a background worker and must not touch live buffer state.
type Completer interface {
	GetCompletions(doc Document, event CompleteEvent) []Completion
}

// Suggestion is a single auto-suggest proposal shown after the cursor.
type Suggestion struct {
	Text string
}

// AutoSuggest produces a suggestion for a document snapshot, or nil. Like
// Completer it runs on a background worker.
type AutoSuggest interface {
	GetSuggestion(doc Document) *Suggestion
}

// CompleteState holds the uncommitted completion candidates for a buffer,
// together with the document they were computed against.
type CompleteState struct {
	Document    Document
	Completions []Completion
	// Index is the selected candidate, or -1 when none is selected.
	Index int
}

// Current returns the selected completion, or nil.
func (cs *CompleteState) Current() *Completion {
	if cs == nil || cs.Index < 0 || cs.Index >= len(cs.Completions) {
		return nil
	}
	return &cs.Completions[cs.Index]
}

// CommonCompleteSuffix returns the common part shared by all completions that
// is not yet typed, or "" when the candidates disagree on the text before the
// cursor. This is the fragment "insert common part" inserts.
func CommonCompleteSuffix(doc Document, completions []Completion) string {
	if len(completions) == 0 {
		return ""
	}

	before := doc.TextBeforeCursor()
	suffixes := make([]string, 0, len(completions))
	for _, c := range completions {
		overlap := -c.StartPosition
		if overlap < 0 || overlap > len(c.Text) {
			return ""
		}
		// A completion that rewrites the text before the cursor has no
		// common part with the others.
		if !strings.HasSuffix(before, c.Text[:overlap]) {
			return ""
		}
		suffixes = append(suffixes, c.Text[overlap:])
	}
	return commonPrefix(suffixes)
}

// commonPrefix returns the longest prefix shared by all strings, cut at a
// rune boundary.
func commonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	prefix := strs[0]
	for _, s := range strs[1:] {
		for !strings.HasPrefix(s, prefix) {
			_, size := lastRune(prefix)
			prefix = prefix[:len(prefix)-size]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

func lastRune(s string) (rune, int) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i]&0xC0 != 0x80 {
			r := []rune(s[i:])
			return r[0], len(s) - i
		}
	}
	return 0, len(s)
}
