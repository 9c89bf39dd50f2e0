// ABOUTME: Pagination state machine for the infinitely scrolling board feed.
// ABOUTME: Owns offset/search/hasMore state and discards stale retrievals by tag.
package feed

import (
	"github.com/google/uuid"

	"strontium/internal/api"
	"strontium/internal/models"
)

// PageSize is the fixed number of messages requested per retrieval.
const PageSize = 10

// Request identifies one outgoing feed retrieval. The tag ties a response
// back to the exact query it was issued under: if the engine has moved on
// (new search term, reset) by the time the response lands, the tag no longer
// matches and the result is dropped instead of applied.
type Request struct {
	Tag   uuid.UUID
	Query api.Query
	Reset bool
}

// Engine owns the accumulated feed and the active retrieval parameters.
//
// It is a pure state machine: Start decides whether a retrieval should be
// issued and returns the Request describing it, the caller performs the I/O,
// and Apply folds the outcome back in. All methods must run on a single
// goroutine (the TUI event loop).
type Engine struct {
	pageSize int
	search   string
	offset   int
	hasMore  bool
	messages []models.Message
	inflight uuid.UUID
	lastErr  error
}

// NewEngine creates an empty engine with the standard page size.
func NewEngine() *Engine {
	return &Engine{pageSize: PageSize, hasMore: true}
}

// SetSearch stages the active search term for subsequent retrievals. An
// empty term is a valid, explicit "unfiltered" query.
func (e *Engine) SetSearch(term string) {
	e.search = term
}

// Search returns the active search term.
func (e *Engine) Search() string {
	return e.search
}

// Start begins a retrieval and returns the request to issue.
//
// A reset load always issues: the offset returns to zero and any in-flight
// retrieval is superseded; its response will fail the tag check in Apply.
// An append load is dropped (ok=false) while a retrieval is in flight or the
// feed is exhausted; the caller re-triggers on the next relevant event.
func (e *Engine) Start(reset bool) (req Request, ok bool) {
	if !reset && (e.inflight != uuid.Nil || !e.hasMore) {
		return Request{}, false
	}
	if reset {
		e.offset = 0
	}

	req = Request{
		Tag:   uuid.New(),
		Query: api.Query{Skip: e.offset, Limit: e.pageSize, Search: e.search},
		Reset: reset,
	}
	e.inflight = req.Tag
	return req, true
}

// Apply folds a completed retrieval into the feed. Stale responses (tag
// mismatch) are ignored entirely. A failed retrieval records a feed-level
// error and keeps the accumulated messages; offset makes no progress, so a
// retry refetches the same page.
func (e *Engine) Apply(req Request, msgs []models.Message, err error) bool {
	if req.Tag == uuid.Nil || req.Tag != e.inflight {
		return false
	}
	e.inflight = uuid.Nil

	if err != nil {
		e.lastErr = err
		return true
	}
	e.lastErr = nil

	if req.Reset {
		e.messages = msgs
	} else {
		e.messages = append(e.messages, msgs...)
	}
	e.offset = req.Query.Skip + e.pageSize
	e.hasMore = len(msgs) == e.pageSize
	return true
}

// ShouldExtend is the scroll-trigger predicate: extend the feed only when
// the terminal record is visible, more records are available, and nothing is
// already in flight.
func (e *Engine) ShouldExtend(lastVisible bool) bool {
	return lastVisible && e.hasMore && e.inflight == uuid.Nil
}

// Messages returns the accumulated feed in server order.
func (e *Engine) Messages() []models.Message {
	return e.messages
}

// Len returns the number of accumulated messages.
func (e *Engine) Len() int {
	return len(e.messages)
}

// HasMore reports whether the server may have further records. It is a
// heuristic: true iff the last page came back full.
func (e *Engine) HasMore() bool {
	return e.hasMore
}

// Loading reports whether a retrieval is in flight.
func (e *Engine) Loading() bool {
	return e.inflight != uuid.Nil
}

// Offset returns the skip value the next append retrieval would use.
func (e *Engine) Offset() int {
	return e.offset
}

// Err returns the feed-level error from the last failed retrieval, if any.
func (e *Engine) Err() error {
	return e.lastErr
}

// ClearErr dismisses the feed-level error banner.
func (e *Engine) ClearErr() {
	e.lastErr = nil
}
