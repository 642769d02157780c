package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-persist/pkg/store"
	"github.com/goliatone/go-persist/pkg/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.RunContractTests(t, func(*testing.T) store.Store {
		return store.NewMemoryStore()
	})
}

func TestMemoryStoreZeroValueUsable(t *testing.T) {
	var s store.MemoryStore
	if err := s.SetItem(context.Background(), "k", "v"); err != nil {
		t.Fatalf("SetItem on zero value: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", s.Len())
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.SetItem(ctx, "shared", "value")
				_, _, _ = s.GetItem(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	value, ok, err := s.GetItem(ctx, "shared")
	if err != nil || !ok || value != "value" {
		t.Fatalf("unexpected final state value=%q ok=%t err=%v", value, ok, err)
	}
}
