package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a Fetcher when the remote source has no
// matches for the query. It is a normal empty state, not a failure.
var ErrNotFound = errors.New("no results")

// Item is a single search result. The controller only relies on its identity.
type Item interface {
	ItemID() string
}

// Page is one page of results returned by a Fetcher.
type Page[T Item] struct {
	Items []T
	// Next is the continuation hint for the following page.
	// Empty when there are no more pages.
	Next string
}

// Fetcher reads a single page of results for a query.
// Pages are 1-based.
type Fetcher[T Item] interface {
	FetchPage(ctx context.Context, query string, page int) (*Page[T], error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc[T Item] func(ctx context.Context, query string, page int) (*Page[T], error)

func (f FetcherFunc[T]) FetchPage(ctx context.Context, query string, page int) (*Page[T], error) {
	return f(ctx, query, page)
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the lifecycle state of the current fetch.
// Page is set while loading, Err when failed.
type State struct {
	Status Status
	Page   int
	Err    error
}

func (s State) String() string {
	switch s.Status {
	case StatusLoading:
		return fmt.Sprintf("loading(%d)", s.Page)
	case StatusFailed:
		return fmt.Sprintf("failed(%v)", s.Err)
	default:
		return s.Status.String()
	}
}

func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// Snapshot is a consistent, caller-owned copy of the controller state.
type Snapshot[T Item] struct {
	Query  string
	Page   int
	Items  []T
	Cursor string
	State  State
}

// HasMore reports whether another page can be requested.
func (s Snapshot[T]) HasMore() bool {
	return s.Cursor != ""
}

// NormalizeQuery trims the query and falls back to defaultQuery when empty.
func NormalizeQuery(query, defaultQuery string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return defaultQuery
	}
	return query
}
