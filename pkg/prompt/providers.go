package prompt

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mattmrsa/goprompt/pkg/buffer"
)

// WordCompleter completes the word under the cursor from a fixed list.
type WordCompleter struct {
	Words      []string
	IgnoreCase bool
}

func (w *WordCompleter) GetCompletions(doc buffer.Document, _ buffer.CompleteEvent) []buffer.Completion {
	before := doc.TextBeforeCursor()
	start := strings.LastIndexAny(before, " \t") + 1
	word := before[start:]

	match := func(candidate string) bool {
		if w.IgnoreCase {
			folder := cases.Fold()
			return strings.HasPrefix(folder.String(candidate), folder.String(word))
		}
		return strings.HasPrefix(candidate, word)
	}

	var out []buffer.Completion
	for _, candidate := range w.Words {
		if match(candidate) {
			out = append(out, buffer.Completion{
				Text:          candidate,
				StartPosition: -len(word),
			})
		}
	}
	return out
}

// HistorySuggest proposes the rest of the most recent history entry that
// starts with the typed text, the fish-shell style ghost text.
type HistorySuggest struct {
	Entries []string
}

func (h *HistorySuggest) GetSuggestion(doc buffer.Document) *buffer.Suggestion {
	if doc.Text == "" {
		return nil
	}
	for i := len(h.Entries) - 1; i >= 0; i-- {
		entry := h.Entries[i]
		if len(entry) > len(doc.Text) && strings.HasPrefix(entry, doc.Text) {
			return &buffer.Suggestion{Text: entry[len(doc.Text):]}
		}
	}
	return nil
}
