// Package storetest holds the contract suite shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-persist/pkg/store"
)

// RunContractTests runs the full contract suite against a Store. Each
// implementation calls it with a factory returning a fresh, empty store.
func RunContractTests(t *testing.T, factory func(t *testing.T) store.Store) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("SetGet", func(t *testing.T) { testSetGet(t, factory(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, factory(t)) })
	t.Run("RemoveMissing", func(t *testing.T) { testRemoveMissing(t, factory(t)) })
	t.Run("EmptyValue", func(t *testing.T) { testEmptyValue(t, factory(t)) })
	t.Run("KeysIsolated", func(t *testing.T) { testKeysIsolated(t, factory(t)) })
	t.Run("Unicode", func(t *testing.T) { testUnicode(t, factory(t)) })
	t.Run("InvalidKey", func(t *testing.T) { testInvalidKey(t, factory(t)) })
	t.Run("CancelledContext", func(t *testing.T) { testCancelledContext(t, factory(t)) })
}

func testGetMissing(t *testing.T, s store.Store) {
	value, ok, err := s.GetItem(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing key, got value %q", value)
	}
}

func testSetGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.SetItem(ctx, "persisted_config", `{"theme":"dark"}`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	value, ok, err := s.GetItem(ctx, "persisted_config")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true after SetItem")
	}
	if value != `{"theme":"dark"}` {
		t.Fatalf("value mismatch: got %q", value)
	}
}

func testOverwrite(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSet(t, s, "k", "first")
	mustSet(t, s, "k", "second")

	value, ok, err := s.GetItem(ctx, "k")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || value != "second" {
		t.Fatalf("expected overwritten value %q, got %q (ok=%t)", "second", value, ok)
	}
}

func testRemove(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSet(t, s, "k", "v")
	if err := s.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, ok, err := s.GetItem(ctx, "k"); err != nil || ok {
		t.Fatalf("expected key removed, ok=%t err=%v", ok, err)
	}
}

func testRemoveMissing(t *testing.T, s store.Store) {
	if err := s.RemoveItem(context.Background(), "never-set"); err != nil {
		t.Fatalf("RemoveItem of missing key should be a no-op, got %v", err)
	}
}

func testEmptyValue(t *testing.T, s store.Store) {
	mustSet(t, s, "k", "")
	value, ok, err := s.GetItem(context.Background(), "k")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || value != "" {
		t.Fatalf("expected empty stored value, got %q (ok=%t)", value, ok)
	}
}

func testKeysIsolated(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSet(t, s, "a", "1")
	mustSet(t, s, "b", "2")
	if err := s.RemoveItem(ctx, "a"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	value, ok, err := s.GetItem(ctx, "b")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || value != "2" {
		t.Fatalf("expected sibling key untouched, got %q (ok=%t)", value, ok)
	}
}

func testUnicode(t *testing.T, s store.Store) {
	want := `{"greeting":"héllo wörld ✓","multi":"line\nbreak"}` + strings.Repeat("x", 4096)
	mustSet(t, s, "unicode", want)
	got, ok, err := s.GetItem(context.Background(), "unicode")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || got != want {
		t.Fatalf("unicode value not preserved")
	}
}

func testInvalidKey(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.SetItem(ctx, "  ", "v"); !errors.Is(err, store.ErrInvalidKey) {
		t.Fatalf("SetItem: expected ErrInvalidKey, got %v", err)
	}
	if _, _, err := s.GetItem(ctx, ""); !errors.Is(err, store.ErrInvalidKey) {
		t.Fatalf("GetItem: expected ErrInvalidKey, got %v", err)
	}
	if err := s.RemoveItem(ctx, ""); !errors.Is(err, store.ErrInvalidKey) {
		t.Fatalf("RemoveItem: expected ErrInvalidKey, got %v", err)
	}
}

func testCancelledContext(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SetItem(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("SetItem: expected context.Canceled, got %v", err)
	}
	if _, _, err := s.GetItem(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("GetItem: expected context.Canceled, got %v", err)
	}
}

func mustSet(t *testing.T, s store.Store, key, value string) {
	t.Helper()
	if err := s.SetItem(context.Background(), key, value); err != nil {
		t.Fatalf("SetItem(%q): %v", key, err)
	}
}
