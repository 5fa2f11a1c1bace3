package session

import (
	"github.com/mattmrsa/goprompt/pkg/buffer"
)

// Well-known buffer names.
const (
	// DefaultBufferName is the main input buffer.
	DefaultBufferName = "default"

	// SearchBufferName holds the incremental search query.
	SearchBufferName = "search"

	// DummyBufferName is a read-only buffer that is always resolvable, so
	// "current buffer" lookups never need a nil case.
	DummyBufferName = "dummy"
)

// bufferRegistry maps buffer names to buffers. The dummy buffer is always
// present.
type bufferRegistry struct {
	buffers map[string]*buffer.Buffer
}

func newBufferRegistry() *bufferRegistry {
	return &bufferRegistry{
		buffers: map[string]*buffer.Buffer{
			DummyBufferName: buffer.New(buffer.ReadOnly()),
		},
	}
}

func (r *bufferRegistry) add(name string, b *buffer.Buffer) {
	r.buffers[name] = b
}

func (r *bufferRegistry) get(name string) (*buffer.Buffer, bool) {
	b, ok := r.buffers[name]
	return b, ok
}

// dummy returns the always-present read-only buffer.
func (r *bufferRegistry) dummy() *buffer.Buffer {
	return r.buffers[DummyBufferName]
}

// focusStack is an ordered sequence of buffer names with a current pointer.
type focusStack struct {
	stack []string
}

func newFocusStack(initial string) *focusStack {
	return &focusStack{stack: []string{initial}}
}

// current returns the focused buffer name, or "".
func (f *focusStack) current() string {
	if len(f.stack) == 0 {
		return ""
	}
	return f.stack[len(f.stack)-1]
}

// replace swaps the focused name without growing the stack.
func (f *focusStack) replace(name string) {
	if len(f.stack) == 0 {
		f.stack = []string{name}
		return
	}
	f.stack[len(f.stack)-1] = name
}

// push focuses name, remembering the previous focus.
func (f *focusStack) push(name string) {
	f.stack = append(f.stack, name)
}

// pop restores the previous focus. The last entry is never removed.
func (f *focusStack) pop() {
	if len(f.stack) > 1 {
		f.stack = f.stack[:len(f.stack)-1]
	}
}
