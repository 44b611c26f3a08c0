package lib

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCache_Expiration(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewCache[string](time.Minute, &logger)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("rick", "Rick Sanchez")
	if v, ok := cache.Get("rick"); !ok || v != "Rick Sanchez" {
		t.Fatalf("expected cached value, got %q (found=%v)", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("rick"); ok {
		t.Errorf("expected entry to expire after ttl")
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewCache[int](time.Hour, &logger)

	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		v, err := cache.GetOrLoad("answer", load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single load, got %d", calls)
	}

	failing := func() (int, error) { return 0, errors.New("boom") }
	if _, err := cache.GetOrLoad("broken", failing); err == nil {
		t.Fatalf("expected load error")
	}
	if _, ok := cache.Get("broken"); ok {
		t.Errorf("failed loads must not be cached")
	}
}

func TestHashParams(t *testing.T) {
	if HashParams("a", "b") != HashParams("a", "b") {
		t.Errorf("hash must be deterministic")
	}
	if HashParams("rick") == HashParams("morty") {
		t.Errorf("different inputs should not collide")
	}
}
