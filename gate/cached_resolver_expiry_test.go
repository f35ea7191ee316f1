package gate

import (
	"context"
	"testing"
	"time"
)

func TestCachedResolver_DropsExpiredEntries(t *testing.T) {
	inner := ResolverFunc[uint, string](func(_ context.Context, key uint) (string, error) {
		return "customer", nil
	})
	cached := NewCachedResolver[uint, string](inner, 50*time.Millisecond)

	for id := uint(1); id <= 5; id++ {
		if _, err := cached.Resolve(context.Background(), id); err != nil {
			t.Fatalf("resolve %d: %v", id, err)
		}
	}
	if n := len(cached.cache); n != 5 {
		t.Fatalf("expected 5 cached entries, got %d", n)
	}

	time.Sleep(100 * time.Millisecond)
	if _, err := cached.Resolve(context.Background(), 1); err != nil {
		t.Fatalf("resolve 1: %v", err)
	}

	if n := len(cached.cache); n != 1 {
		t.Errorf("expected expired entries to be dropped, %d left", n)
	}
	if _, ok := cached.cache[1]; !ok {
		t.Error("expected the fresh entry for 1 to be cached")
	}
}
