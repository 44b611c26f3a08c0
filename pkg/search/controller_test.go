package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type character struct {
	ID   int
	Name string
}

func (c character) ItemID() string {
	return strconv.Itoa(c.ID)
}

type fetchResponse struct {
	page *Page[character]
	err  error
}

type fetchCall struct {
	ctx   context.Context
	query string
	page  int
	resp  chan fetchResponse
}

func (c *fetchCall) respond(page *Page[character], err error) {
	c.resp <- fetchResponse{page: page, err: err}
}

// gatedFetcher blocks every read until the test responds to it.
// Like a real transport it may still deliver a response after cancellation.
type gatedFetcher struct {
	calls chan *fetchCall
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan *fetchCall, 16)}
}

func (f *gatedFetcher) FetchPage(ctx context.Context, query string, page int) (*Page[character], error) {
	call := &fetchCall{ctx: ctx, query: query, page: page, resp: make(chan fetchResponse, 1)}
	f.calls <- call
	r := <-call.resp
	return r.page, r.err
}

func (f *gatedFetcher) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch call")
		return nil
	}
}

func newTestController(t *testing.T, fetcher Fetcher[character]) *Controller[character] {
	t.Helper()
	logger := zerolog.Nop()
	c := NewController[character](&logger, fetcher, &Config{DefaultQuery: "morty"})
	t.Cleanup(c.Close)
	return c
}

func characters(name string, offset, n int) []character {
	out := make([]character, n)
	for i := range out {
		out[i] = character{ID: offset + i + 1, Name: fmt.Sprintf("%s #%d", name, offset+i+1)}
	}
	return out
}

func page(name string, offset, n int, next string) *Page[character] {
	return &Page[character]{Items: characters(name, offset, n), Next: next}
}

func wait(t *testing.T, c *Controller[character]) Snapshot[character] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := c.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestController_SearchAndLoadMore(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	assert.Equal(t, State{Status: StatusLoading, Page: 1}, c.Snapshot().State)

	call := fetcher.next(t)
	assert.Equal(t, "rick", call.query)
	assert.Equal(t, 1, call.page)
	call.respond(page("Rick", 0, 20, "https://rickandmortyapi.com/api/character/?page=2&name=rick"), nil)

	snap := wait(t, c)
	assert.Equal(t, StatusSuccess, snap.State.Status)
	assert.Len(t, snap.Items, 20)
	assert.True(t, snap.HasMore())

	require.True(t, c.LoadMore())
	assert.Equal(t, State{Status: StatusLoading, Page: 2}, c.Snapshot().State)

	call = fetcher.next(t)
	assert.Equal(t, "rick", call.query)
	assert.Equal(t, 2, call.page)
	call.respond(page("Rick", 20, 20, ""), nil)

	snap = wait(t, c)
	assert.Equal(t, StatusSuccess, snap.State.Status)
	assert.Equal(t, 2, snap.Page)
	require.Len(t, snap.Items, 40)
	assert.Equal(t, "1", snap.Items[0].ItemID())
	assert.Equal(t, "40", snap.Items[39].ItemID())
	assert.False(t, snap.HasMore())

	assert.False(t, c.LoadMore(), "load more without a cursor must be a no-op")
}

func TestController_NotFound(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("zzzznotreal")
	fetcher.next(t).respond(nil, fmt.Errorf("search characters: %w", ErrNotFound))

	snap := wait(t, c)
	assert.Equal(t, StatusNotFound, snap.State.Status)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.HasMore())
}

func TestController_NotFoundClearsPriorResults(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	fetcher.next(t).respond(page("Rick", 0, 20, "next"), nil)
	require.Len(t, wait(t, c).Items, 20)

	require.True(t, c.LoadMore())
	fetcher.next(t).respond(nil, ErrNotFound)

	snap := wait(t, c)
	assert.Equal(t, StatusNotFound, snap.State.Status)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Cursor)
}

func TestController_SupersededQueryIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	rickCall := fetcher.next(t)

	c.SetQuery("morty")
	mortyCall := fetcher.next(t)
	assert.Error(t, rickCall.ctx.Err(), "superseded request must be cancelled")
	assert.NoError(t, mortyCall.ctx.Err())

	mortyCall.respond(page("Morty", 100, 20, ""), nil)
	snap := wait(t, c)
	require.Len(t, snap.Items, 20)

	// The transport may still deliver the old response.
	rickCall.respond(page("Rick", 0, 20, "next"), nil)
	c.wg.Wait()

	snap = c.Snapshot()
	assert.Equal(t, "morty", snap.Query)
	assert.Equal(t, StatusSuccess, snap.State.Status)
	require.Len(t, snap.Items, 20)
	for _, item := range snap.Items {
		assert.Contains(t, item.Name, "Morty")
	}
	assert.Empty(t, snap.Cursor)
}

func TestController_OutOfOrderResponses(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	queries := []string{"r", "ri", "ric", "rick"}
	calls := make([]*fetchCall, 0, len(queries))
	for _, q := range queries {
		c.SetQuery(q)
		calls = append(calls, fetcher.next(t))
	}

	// Older responses arrive first while the latest is still in flight.
	for i, call := range calls[:len(calls)-1] {
		call.respond(page(queries[i], i*100, 5, "next"), nil)
	}
	assert.Never(t, func() bool {
		snap := c.Snapshot()
		return len(snap.Items) > 0 || !snap.State.IsLoading()
	}, 100*time.Millisecond, 5*time.Millisecond)

	calls[len(calls)-1].respond(page("rick", 0, 3, ""), nil)
	snap := wait(t, c)
	c.wg.Wait()

	assert.Equal(t, "rick", snap.Query)
	require.Len(t, snap.Items, 3)
	assert.Equal(t, "rick #1", snap.Items[0].Name)
}

func TestController_PageOneReplaces(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	fetcher.next(t).respond(page("Rick", 0, 20, "next"), nil)
	require.Len(t, wait(t, c).Items, 20)

	c.Fetch("rick", 1)
	assert.Len(t, c.Snapshot().Items, 20, "results stay visible while page 1 reloads")
	fetcher.next(t).respond(page("Rick", 50, 4, ""), nil)

	snap := wait(t, c)
	require.Len(t, snap.Items, 4)
	assert.Equal(t, "51", snap.Items[0].ItemID())
}

func TestController_LoadMoreWhileLoading(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	fetcher.next(t).respond(page("Rick", 0, 20, "next"), nil)
	wait(t, c)

	require.True(t, c.LoadMore())
	assert.False(t, c.LoadMore(), "second load more must wait for the first")

	fetcher.next(t).respond(page("Rick", 20, 20, "next"), nil)
	snap := wait(t, c)
	assert.Equal(t, 2, snap.Page)
	assert.Len(t, snap.Items, 40)

	select {
	case call := <-fetcher.calls:
		t.Fatalf("unexpected fetch for page %d", call.page)
	default:
	}
}

func TestController_FailureKeepsResultsAndRetry(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	assert.False(t, c.Retry(), "idle controller cannot be retried")

	c.SetQuery("rick")
	fetcher.next(t).respond(page("Rick", 0, 20, "next"), nil)
	wait(t, c)
	assert.False(t, c.Retry(), "successful controller cannot be retried")

	require.True(t, c.LoadMore())
	networkErr := errors.New("dial tcp: connection refused")
	fetcher.next(t).respond(nil, networkErr)

	snap := wait(t, c)
	assert.Equal(t, StatusFailed, snap.State.Status)
	assert.ErrorIs(t, snap.State.Err, networkErr)
	assert.Len(t, snap.Items, 20, "stale results stay visible after a failure")

	require.True(t, c.Retry())
	snap = c.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, State{Status: StatusLoading, Page: 2}, snap.State)

	call := fetcher.next(t)
	assert.Equal(t, 2, call.page)
	call.respond(page("Rick", 20, 20, ""), nil)

	snap = wait(t, c)
	assert.Equal(t, StatusSuccess, snap.State.Status)
	require.Len(t, snap.Items, 20)
	assert.Equal(t, "21", snap.Items[0].ItemID())
}

func TestController_RetryAfterNotFound(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("zzzznotreal")
	fetcher.next(t).respond(nil, ErrNotFound)
	wait(t, c)

	require.True(t, c.Retry())
	call := fetcher.next(t)
	assert.Equal(t, "zzzznotreal", call.query)
	assert.Equal(t, 1, call.page)
	call.respond(page("Mr. Poopybutthole", 0, 1, ""), nil)

	snap := wait(t, c)
	assert.Equal(t, StatusSuccess, snap.State.Status)
	assert.Len(t, snap.Items, 1)
}

func TestController_EmptyQueryUsesDefault(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "empty", query: "", want: "morty"},
		{name: "whitespace", query: "   ", want: "morty"},
		{name: "trimmed", query: "  summer ", want: "summer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newGatedFetcher()
			c := newTestController(t, fetcher)

			c.SetQuery(tt.query)
			call := fetcher.next(t)
			assert.Equal(t, tt.want, call.query)
			assert.Equal(t, tt.want, c.Snapshot().Query)
			call.respond(page(tt.want, 0, 1, ""), nil)
			wait(t, c)
		})
	}
}

func TestController_SetQueryResetsSession(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	fetcher.next(t).respond(page("Rick", 0, 20, "next"), nil)
	wait(t, c)
	require.True(t, c.LoadMore())
	fetcher.next(t).respond(page("Rick", 20, 20, "next"), nil)
	wait(t, c)

	c.SetQuery("summer")
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Cursor)

	call := fetcher.next(t)
	assert.Equal(t, 1, call.page)
	call.respond(page("Summer", 0, 2, ""), nil)
	assert.Len(t, wait(t, c).Items, 2)
}

func TestController_CloseCancelsInFlight(t *testing.T) {
	fetcher := newGatedFetcher()
	logger := zerolog.Nop()
	c := NewController[character](&logger, fetcher, &Config{DefaultQuery: "morty"})

	c.SetQuery("rick")
	call := fetcher.next(t)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	require.Eventually(t, func() bool { return call.ctx.Err() != nil }, time.Second, 5*time.Millisecond)
	call.respond(page("Rick", 0, 20, ""), nil)
	<-closed

	snap := c.Snapshot()
	assert.Empty(t, snap.Items, "late responses must not mutate a closed controller")

	c.SetQuery("morty")
	assert.False(t, c.LoadMore())
	assert.False(t, c.Retry())
	select {
	case call := <-fetcher.calls:
		t.Fatalf("closed controller issued a fetch for %q", call.query)
	default:
	}

	for range c.Changes() {
	}
	c.Close()
}

func TestController_ChangesSignal(t *testing.T) {
	fetcher := newGatedFetcher()
	c := newTestController(t, fetcher)

	c.SetQuery("rick")
	select {
	case <-c.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected change signal after starting a fetch")
	}

	fetcher.next(t).respond(page("Rick", 0, 1, ""), nil)
	select {
	case <-c.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected change signal after fetch resolved")
	}
	assert.Equal(t, StatusSuccess, c.Snapshot().State.Status)
}

func TestFetcherFunc(t *testing.T) {
	c := newTestController(t, FetcherFunc[character](func(ctx context.Context, query string, p int) (*Page[character], error) {
		return page(query, 0, 2, ""), nil
	}))

	c.SetQuery("beth")
	snap := wait(t, c)
	assert.Equal(t, StatusSuccess, snap.State.Status)
	assert.Len(t, snap.Items, 2)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", State{}.String())
	assert.Equal(t, "loading(3)", State{Status: StatusLoading, Page: 3}.String())
	assert.Equal(t, "failed(boom)", State{Status: StatusFailed, Err: errors.New("boom")}.String())
	assert.Equal(t, "not_found", State{Status: StatusNotFound}.String())
}
