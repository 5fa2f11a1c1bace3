package session

import (
	"strings"

	"golang.org/x/text/cases"
)

// SearchDirection selects which way an incremental search scans.
type SearchDirection int

const (
	SearchForward SearchDirection = iota
	SearchBackward
)

// SearchState holds the current search query. Case sensitivity is a live
// predicate, re-evaluated on every match, not a snapshot taken when the
// search started.
type SearchState struct {
	Text      string
	Direction SearchDirection

	ignoreCase func() bool
}

// NewSearchState creates a forward search with an empty query. ignoreCase
// may be nil for always case-sensitive matching.
func NewSearchState(ignoreCase func() bool) *SearchState {
	return &SearchState{Direction: SearchForward, ignoreCase: ignoreCase}
}

// IgnoreCase evaluates the case-sensitivity policy now.
func (ss *SearchState) IgnoreCase() bool {
	return ss.ignoreCase != nil && ss.ignoreCase()
}

// Invert flips the search direction.
func (ss *SearchState) Invert() {
	if ss.Direction == SearchForward {
		ss.Direction = SearchBackward
	} else {
		ss.Direction = SearchForward
	}
}

// Matches reports whether text contains the query under the current case
// policy. Unicode case folding is used rather than simple lowercasing.
func (ss *SearchState) Matches(text string) bool {
	if ss.Text == "" {
		return false
	}
	if ss.IgnoreCase() {
		folder := cases.Fold()
		return strings.Contains(folder.String(text), folder.String(ss.Text))
	}
	return strings.Contains(text, ss.Text)
}
