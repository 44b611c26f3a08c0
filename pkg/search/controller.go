package search

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Controller owns the lifecycle of a paginated search session.
//
// Every fetch is tagged with a generation number. Starting a new fetch
// cancels the previous one and bumps the generation, and a response is only
// applied when its generation is still current. Responses arriving out of
// order can therefore never overwrite newer results.
//
// Operations return immediately; the network read runs in the background.
// Use Changes to observe transitions, Wait to block until the current fetch
// settles, and Close to discard the controller.
type Controller[T Item] struct {
	fetcher      Fetcher[T]
	logger       *zerolog.Logger
	defaultQuery string

	mu         sync.Mutex
	query      string
	page       int
	items      []T
	cursor     string
	state      State
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
	closed     bool

	changes chan struct{}
	wg      sync.WaitGroup
}

func NewController[T Item](logger *zerolog.Logger, fetcher Fetcher[T], config *Config) *Controller[T] {
	l := logger.With().Str("component", "search").Logger()

	return &Controller[T]{
		fetcher:      fetcher,
		logger:       &l,
		defaultQuery: config.DefaultQuery,
		query:        config.DefaultQuery,
		page:         1,
		state:        State{Status: StatusIdle},
		changes:      make(chan struct{}, 1),
	}
}

// Changes signals that the state has changed since the last receive.
// Signals are coalesced, so receivers should read Snapshot after each one.
// The channel is closed by Close.
func (c *Controller[T]) Changes() <-chan struct{} {
	return c.changes
}

// SetQuery starts a new session for query: the page resets to 1,
// results and cursor are cleared, and the first page is fetched.
// An empty query falls back to the default term.
func (c *Controller[T]) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.query = NormalizeQuery(query, c.defaultQuery)
	c.page = 1
	c.items = nil
	c.cursor = ""
	c.startLocked()
}

// Fetch requests page of query. Page 1 replaces the current results when it
// resolves, any later page is appended.
func (c *Controller[T]) Fetch(query string, page int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if page < 1 {
		page = 1
	}

	c.query = NormalizeQuery(query, c.defaultQuery)
	c.page = page
	c.startLocked()
}

// LoadMore fetches the next page. It is a no-op when there is no next page
// or a fetch is already in flight.
func (c *Controller[T]) LoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.cursor == "" || c.state.IsLoading() {
		return false
	}

	c.page++
	c.startLocked()
	return true
}

// Retry re-fetches the current page with empty results.
// Only failed and not-found sessions can be retried.
func (c *Controller[T]) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if c.state.Status != StatusFailed && c.state.Status != StatusNotFound {
		return false
	}

	c.items = nil
	c.startLocked()
	return true
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Wait blocks until no fetch is in flight or ctx is done.
func (c *Controller[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	for {
		c.mu.Lock()
		settled := c.settled
		if settled == nil || c.closed {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		case <-settled:
		}
	}
}

// Close cancels the in-flight fetch and waits for it to exit.
// Every operation after Close is a no-op.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.settleLocked()
	c.mu.Unlock()

	c.wg.Wait()
	close(c.changes)
}

func (c *Controller[T]) startLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.settleLocked()

	c.generation++
	gen := c.generation
	query, page := c.query, c.page

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.settled = make(chan struct{})
	c.state = State{Status: StatusLoading, Page: page}
	c.notifyLocked()

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Uint64("generation", gen).
		Msg("Fetching page")

	c.wg.Add(1)
	go c.run(ctx, cancel, gen, query, page)
}

func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, query string, page int) {
	defer c.wg.Done()
	defer cancel()

	result, err := c.fetcher.FetchPage(ctx, query, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	logger := c.logger.With().
		Str("query", query).
		Int("page", page).
		Uint64("generation", gen).
		Logger()

	if c.closed || gen != c.generation || ctx.Err() != nil {
		logger.Debug().Err(err).Msg("Discarding superseded fetch")
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		c.items = nil
		c.cursor = ""
		c.state = State{Status: StatusNotFound}
		logger.Debug().Msg("No results")
	case err != nil:
		c.state = State{Status: StatusFailed, Err: err}
		logger.Warn().Err(err).Msg("Fetch failed")
	default:
		if result == nil {
			result = &Page[T]{}
		}
		if page == 1 {
			c.items = append([]T(nil), result.Items...)
		} else {
			c.items = append(c.items, result.Items...)
		}
		c.cursor = result.Next
		c.state = State{Status: StatusSuccess}
		logger.Debug().
			Int("received", len(result.Items)).
			Int("total", len(c.items)).
			Bool("has_more", c.cursor != "").
			Msg("Fetched page")
	}

	c.cancel = nil
	c.settleLocked()
	c.notifyLocked()
}

func (c *Controller[T]) settleLocked() {
	if c.settled != nil {
		close(c.settled)
		c.settled = nil
	}
}

func (c *Controller[T]) notifyLocked() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Query:  c.query,
		Page:   c.page,
		Items:  append([]T(nil), c.items...),
		Cursor: c.cursor,
		State:  c.state,
	}
}
