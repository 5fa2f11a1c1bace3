package session

import (
	"time"

	"github.com/mattmrsa/goprompt/pkg/buffer"
	"github.com/mattmrsa/goprompt/pkg/logging"
)

// The two async task actors below share one shape: snapshot the document,
// run the provider on a background worker, then validate on the control
// thread that the snapshot is still current before committing the result. A
// stale result is discarded and the actor restarts itself; fast typing must
// never see a completion applied against an old cursor position.
//
// The inFlight guards are only ever read and written inside callbacks that
// run on the control thread, so the loop's scheduling queue provides the
// required happens-before edges without extra locking.

// completionTrigger carries one completion request.
type completionTrigger struct {
	selectFirst      bool
	selectLast       bool
	insertCommonPart bool
	event            buffer.CompleteEvent
}

// completionActor runs asynchronous completion for one buffer, single-flight.
type completionActor struct {
	s        *Session
	buf      *buffer.Buffer
	inFlight bool
}

// trigger starts a completion task unless one is already in flight for this
// buffer, the buffer already holds uncommitted completions, or no completer
// is configured.
func (a *completionActor) trigger(req completionTrigger) {
	if a.inFlight {
		return
	}
	if a.buf.CompleteState() != nil || a.buf.Completer() == nil {
		return
	}

	doc := a.buf.Document()
	a.inFlight = true

	a.s.loop.RunInExecutor(func() {
		completions := a.buf.Completer().GetCompletions(doc, req.event)

		a.s.loop.CallFromExecutor(func() {
			a.inFlight = false
			a.commit(req, doc, completions)
		}, time.Time{})
	})
}

// commit applies a finished task's result, re-validating staleness first:
// the result only lands if the buffer's live text and cursor still equal the
// snapshot and nothing was committed in the meantime.
func (a *completionActor) commit(req completionTrigger, doc buffer.Document, completions []buffer.Completion) {
	live := a.buf.Document()
	if live != doc || a.buf.CompleteState() != nil {
		logging.Debugf("session: discarding stale completion result, restarting")
		a.trigger(completionTrigger{event: buffer.CompleteEvent{TextInserted: true}})
		return
	}

	setCompletions := true
	selectFirstAnyway := false

	if req.insertCommonPart {
		if common := buffer.CommonCompleteSuffix(doc, completions); common != "" {
			// Insert the shared prefix and restart completion from
			// scratch; this narrows the candidates instead of showing
			// a list.
			a.buf.InsertText(common)
			a.trigger(completionTrigger{event: buffer.CompleteEvent{TextInserted: true}})
			setCompletions = false
		} else if len(completions) == 1 {
			// No literal common part but exactly one candidate, e.g. a
			// wildcard pattern with a single match. Treat it as
			// "select the first".
			selectFirstAnyway = true
		}
	}

	if setCompletions {
		a.buf.SetCompletions(completions, req.selectFirst || selectFirstAnyway, req.selectLast)
	}
	a.s.Invalidate()
}

// suggestionActor runs asynchronous auto-suggestion for one buffer,
// single-flight.
type suggestionActor struct {
	s        *Session
	buf      *buffer.Buffer
	inFlight bool
}

// trigger starts a suggestion task unless one is already in flight, a
// suggestion is already present, or no provider is configured.
func (a *suggestionActor) trigger() {
	if a.inFlight {
		return
	}
	if a.buf.Suggestion() != nil || a.buf.AutoSuggest() == nil {
		return
	}

	doc := a.buf.Document()
	a.inFlight = true

	a.s.loop.RunInExecutor(func() {
		suggestion := a.buf.AutoSuggest().GetSuggestion(doc)

		a.s.loop.CallFromExecutor(func() {
			a.inFlight = false
			if a.buf.Document() != doc {
				logging.Debugf("session: discarding stale suggestion, restarting")
				a.trigger()
				return
			}
			a.buf.SetSuggestion(suggestion)
			a.s.Invalidate()
		}, time.Time{})
	})
}
