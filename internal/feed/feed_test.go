// ABOUTME: Tests for the feed pagination engine's state machine.
// ABOUTME: Covers offset arithmetic, the hasMore heuristic, and stale-response discard.
package feed

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"strontium/internal/models"
)

func makePage(start, n int) []models.Message {
	msgs := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, models.Message{ID: start + i, Content: fmt.Sprintf("message %d", start+i)})
	}
	return msgs
}

func TestResetLoadSuccess(t *testing.T) {
	e := NewEngine()

	req, ok := e.Start(true)
	require.True(t, ok)
	require.Equal(t, 0, req.Query.Skip)
	require.Equal(t, PageSize, req.Query.Limit)
	require.True(t, e.Loading())

	require.True(t, e.Apply(req, makePage(1, PageSize), nil))
	require.Equal(t, PageSize, e.Offset(), "successful reset ends with offset = page size")
	require.True(t, e.HasMore())
	require.Equal(t, PageSize, e.Len())
	require.False(t, e.Loading())
}

func TestResetLoadFailureNoProgress(t *testing.T) {
	e := NewEngine()

	// Seed some accumulated state first.
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, PageSize), nil)

	req, ok := e.Start(true)
	require.True(t, ok)
	require.True(t, e.Apply(req, nil, errors.New("connection refused")))

	require.Equal(t, 0, e.Offset(), "failed reset makes no progress")
	require.Error(t, e.Err())
	require.Equal(t, PageSize, e.Len(), "accumulated records survive a failed retrieval")
}

func TestAppendAdvancesOffset(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, PageSize), nil)

	req, ok := e.Start(false)
	require.True(t, ok)
	require.Equal(t, PageSize, req.Query.Skip)

	e.Apply(req, makePage(11, 4), nil)
	require.Equal(t, 2*PageSize, e.Offset())
	require.Equal(t, 14, e.Len())
	require.False(t, e.HasMore(), "short page means exhausted")
}

func TestHasMoreHeuristic(t *testing.T) {
	e := NewEngine()

	for _, tc := range []struct {
		pageLen int
		hasMore bool
	}{
		{PageSize, true},
		{PageSize - 1, false},
		{0, false},
	} {
		req, _ := e.Start(true)
		e.Apply(req, makePage(1, tc.pageLen), nil)
		require.Equal(t, tc.hasMore, e.HasMore(), "page of %d records", tc.pageLen)
	}
}

func TestAppendDroppedWhileInFlight(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, PageSize), nil)

	first, ok := e.Start(false)
	require.True(t, ok)

	_, ok = e.Start(false)
	require.False(t, ok, "second append while one is in flight is dropped, not queued")

	e.Apply(first, makePage(11, PageSize), nil)
	_, ok = e.Start(false)
	require.True(t, ok, "append allowed again once the in-flight one resolved")
}

func TestAppendDroppedWhenExhausted(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, 4), nil)

	_, ok := e.Start(false)
	require.False(t, ok)
}

func TestResetSupersedesInFlightAppend(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, PageSize), nil)

	stale, ok := e.Start(false)
	require.True(t, ok)

	e.SetSearch("hello")
	fresh, ok := e.Start(true)
	require.True(t, ok, "a reset always issues, superseding the in-flight append")
	require.Equal(t, "hello", fresh.Query.Search)

	// The superseded response lands late and must be ignored.
	require.False(t, e.Apply(stale, makePage(11, PageSize), nil))
	require.Equal(t, PageSize, e.Len())
	require.True(t, e.Loading(), "the fresh retrieval is still pending")

	require.True(t, e.Apply(fresh, makePage(100, 3), nil))
	require.Equal(t, 3, e.Len(), "reset replaces the accumulated feed")
	require.Equal(t, PageSize, e.Offset())
	require.False(t, e.HasMore())
}

func TestStaleResponseAfterResetDiscarded(t *testing.T) {
	e := NewEngine()

	first, _ := e.Start(true)
	e.SetSearch("h")
	second, _ := e.Start(true)

	// Responses arrive out of order; only the current tag applies.
	require.True(t, e.Apply(second, makePage(1, 2), nil))
	require.False(t, e.Apply(first, makePage(50, PageSize), nil))

	require.Equal(t, 2, e.Len())
	require.False(t, e.HasMore())
}

func TestUntaggedResponseIgnoredWhileIdle(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, 3), nil)

	// Nothing is in flight; a zero-tagged response must not apply.
	require.False(t, e.Apply(Request{}, makePage(50, PageSize), nil))
	require.Equal(t, 3, e.Len())
}

func TestShouldExtend(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, makePage(1, PageSize), nil)

	require.True(t, e.ShouldExtend(true))
	require.False(t, e.ShouldExtend(false), "terminal record not visible")

	_, _ = e.Start(false)
	require.False(t, e.ShouldExtend(true), "retrieval already in flight")
}

func TestScrollPaginationEndToEnd(t *testing.T) {
	e := NewEngine()

	// Initial unfiltered load returns a full page.
	req, ok := e.Start(true)
	require.True(t, ok)
	e.Apply(req, makePage(1, 10), nil)
	require.True(t, e.HasMore())

	// Scrolling to the last record triggers a second retrieval at offset 10.
	require.True(t, e.ShouldExtend(true))
	req, ok = e.Start(false)
	require.True(t, ok)
	require.Equal(t, 10, req.Query.Skip)

	// A short page of 4 exhausts the feed.
	e.Apply(req, makePage(11, 4), nil)
	require.False(t, e.HasMore())
	require.Equal(t, 14, e.Len())

	// A further scroll trigger issues no request.
	require.False(t, e.ShouldExtend(true))
	_, ok = e.Start(false)
	require.False(t, ok)
}

func TestErrorClearedOnNextSuccess(t *testing.T) {
	e := NewEngine()

	req, _ := e.Start(true)
	e.Apply(req, nil, errors.New("boom"))
	require.Error(t, e.Err())

	req, _ = e.Start(true)
	e.Apply(req, makePage(1, 3), nil)
	require.NoError(t, e.Err())
}

func TestClearErr(t *testing.T) {
	e := NewEngine()
	req, _ := e.Start(true)
	e.Apply(req, nil, errors.New("boom"))

	e.ClearErr()
	require.NoError(t, e.Err())
	require.Equal(t, 0, e.Len())
}

func TestSearchTermCarriedInQuery(t *testing.T) {
	e := NewEngine()
	e.SetSearch("hello")

	req, _ := e.Start(true)
	require.Equal(t, "hello", req.Query.Search)

	e.Apply(req, makePage(1, PageSize), nil)
	req, _ = e.Start(false)
	require.Equal(t, "hello", req.Query.Search, "append pages keep the active filter")
}
