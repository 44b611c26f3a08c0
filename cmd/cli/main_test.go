package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/providers/rickandmorty"
	"github.com/Vichigato-yt/pocketmortysprueba/pkg/search"
)

func newController(t *testing.T, fetch search.FetcherFunc[rickandmorty.Character]) *search.Controller[rickandmorty.Character] {
	t.Helper()

	logger := zerolog.Nop()
	c := search.NewController[rickandmorty.Character](&logger, fetch, &search.Config{DefaultQuery: "morty"})
	t.Cleanup(c.Close)
	return c
}

// threePages serves pages 1..3 with two characters each.
func threePages(calls *atomic.Int32) search.FetcherFunc[rickandmorty.Character] {
	return func(_ context.Context, query string, page int) (*search.Page[rickandmorty.Character], error) {
		calls.Add(1)
		next := ""
		if page < 3 {
			next = "next"
		}
		return &search.Page[rickandmorty.Character]{
			Items: []rickandmorty.Character{
				{ID: page*10 + 1, Name: query},
				{ID: page*10 + 2, Name: query},
			},
			Next: next,
		}, nil
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []rickandmorty.Character {
	t.Helper()

	var out []rickandmorty.Character
	dec := json.NewDecoder(buf)
	for dec.More() {
		var c rickandmorty.Character
		require.NoError(t, dec.Decode(&c))
		out = append(out, c)
	}
	return out
}

func TestSearchAll(t *testing.T) {
	tests := []struct {
		name     string
		maxPages int
		wantIDs  []int
		wantHits int32
	}{
		{name: "single page", maxPages: 1, wantIDs: []int{11, 12}, wantHits: 1},
		{name: "two pages", maxPages: 2, wantIDs: []int{11, 12, 21, 22}, wantHits: 2},
		{name: "all pages", maxPages: 0, wantIDs: []int{11, 12, 21, 22, 31, 32}, wantHits: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newController(t, threePages(&calls))

			var buf bytes.Buffer
			err := searchAll(context.Background(), c, "rick", tt.maxPages, json.NewEncoder(&buf))
			require.NoError(t, err)

			got := decodeLines(t, &buf)
			ids := make([]int, len(got))
			for i, ch := range got {
				ids[i] = ch.ID
				assert.Equal(t, "rick", ch.Name)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantHits, calls.Load())
		})
	}
}

func TestSearchAllNotFound(t *testing.T) {
	c := newController(t, func(context.Context, string, int) (*search.Page[rickandmorty.Character], error) {
		return nil, rickandmorty.ErrNotFound
	})

	var buf bytes.Buffer
	err := searchAll(context.Background(), c, "zzzznotreal", 1, json.NewEncoder(&buf))
	require.ErrorIs(t, err, search.ErrNotFound)
	assert.Contains(t, err.Error(), "zzzznotreal")
	assert.Zero(t, buf.Len())
}

func TestSearchAllFailure(t *testing.T) {
	boom := errors.New("boom")
	c := newController(t, func(context.Context, string, int) (*search.Page[rickandmorty.Character], error) {
		return nil, boom
	})

	err := searchAll(context.Background(), c, "rick", 1, json.NewEncoder(&bytes.Buffer{}))
	require.ErrorIs(t, err, boom)
}

type fakeReader struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeReader) Character(_ context.Context, id int) (*rickandmorty.Character, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if id == 404 {
		return nil, rickandmorty.ErrNotFound
	}
	return &rickandmorty.Character{ID: id, Name: "Morty"}, nil
}

func TestFetchDetails(t *testing.T) {
	logger := zerolog.Nop()
	reader := &fakeReader{}

	ids := []int{1, 2, 404, 3, 4, 5}
	results, err := fetchDetails(context.Background(), &logger, reader, ids, 2)
	require.NoError(t, err)
	require.Len(t, results, len(ids))

	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
		if r.ID == 404 {
			assert.Nil(t, r.Character)
			assert.Equal(t, rickandmorty.ErrNotFound.Error(), r.Error)
			continue
		}
		require.NotNil(t, r.Character)
		assert.Empty(t, r.Error)
	}
	assert.LessOrEqual(t, reader.peak.Load(), int32(2))
}

func TestIntSlice(t *testing.T) {
	var ids []int
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var((*intSlice)(&ids), "id", "")

	require.NoError(t, fs.Parse([]string{"-id", "1", "-id", "2,3"}))
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Equal(t, "1,2,3", (*intSlice)(&ids).String())

	err := fs.Parse([]string{"-id", "rick"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid id"))
}

func TestFlagConfigValidation(t *testing.T) {
	assert.Error(t, lib.ValidateStruct(DetailConfig{MaxConcurrency: 1}))
	assert.Error(t, lib.ValidateStruct(DetailConfig{IDs: []int{0}, MaxConcurrency: 1}))
	assert.NoError(t, lib.ValidateStruct(DetailConfig{IDs: []int{1}, MaxConcurrency: 1}))
	assert.Error(t, lib.ValidateStruct(SummaryConfig{ID: 0, Width: 80}))
	assert.NoError(t, lib.ValidateStruct(SummaryConfig{ID: 1, Width: 80}))
	assert.Error(t, lib.ValidateStruct(SearchConfig{Pages: -1}))
}
