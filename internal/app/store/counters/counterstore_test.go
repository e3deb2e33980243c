package counterstore_test

import (
	"context"
	"sync"
	"testing"

	counterstore "github.com/mta-community/mtahub/internal/app/store/counters"
	"github.com/mta-community/mtahub/internal/testutil"
)

func TestStore_Next_RespectsFloor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Next(ctx, "membership-2026", 3)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if n != 4 {
		t.Errorf("first value with floor 3 = %d, want 4", n)
	}

	// A lower floor never moves the counter backwards.
	n, err = store.Next(ctx, "membership-2026", 1)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if n != 5 {
		t.Errorf("second value = %d, want 5", n)
	}

	n, err = store.Next(ctx, "membership-2027", 0)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if n != 1 {
		t.Errorf("new key starts at %d, want 1", n)
	}
}

func TestStore_Next_ConcurrentCallersGetDistinctValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Next(context.Background(), "membership-2026", 0)
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[n] {
				t.Errorf("value %d handed out twice", n)
			}
			seen[n] = true
		}()
	}
	wg.Wait()

	next, err := store.Next(context.Background(), "membership-2026", 0)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if next != workers+1 {
		t.Errorf("next after %d concurrent calls = %d, want %d", workers, next, workers+1)
	}
}
