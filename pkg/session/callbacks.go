package session

import (
	"github.com/mattmrsa/goprompt/pkg/eventloop"
)

// sessionCallbacks bridges the event loop to the session. Every dispatch
// walks to the deepest active child first: input never reaches a suspended
// parent while a sub-session is running. The bridge itself holds no nesting
// state, only a non-owning reference to the root.
type sessionCallbacks struct {
	root *Session
}

// active follows the child chain to its end.
func (c *sessionCallbacks) active() *Session {
	s := c.root
	for s.child != nil {
		s = s.child
	}
	return s
}

func (c *sessionCallbacks) FeedKey(key eventloop.KeyPress) {
	c.active().keys.FeedKey(key)
}

func (c *sessionCallbacks) TerminalSizeChanged() {
	c.active().onResize()
}

func (c *sessionCallbacks) InputTimeout() {
	s := c.active()
	s.cfg.fire(s.cfg.OnInputTimeout, s)
}
