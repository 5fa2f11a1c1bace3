package buffer

// Document is an immutable snapshot of a buffer's text and cursor position,
// captured when an asynchronous task starts. Comparing a live buffer against
// the snapshot it was taken from is how stale task results are detected.
type Document struct {
	Text           string
	CursorPosition int
}

// TextBeforeCursor returns the text up to the cursor.
func (d Document) TextBeforeCursor() string {
	if d.CursorPosition >= len(d.Text) {
		return d.Text
	}
	if d.CursorPosition < 0 {
		return ""
	}
	return d.Text[:d.CursorPosition]
}

// TextAfterCursor returns the text from the cursor onwards.
func (d Document) TextAfterCursor() string {
	if d.CursorPosition >= len(d.Text) {
		return ""
	}
	if d.CursorPosition < 0 {
		return d.Text
	}
	return d.Text[d.CursorPosition:]
}
