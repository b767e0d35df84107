package engine

import (
	"sync"
	"testing"
)

func TestStore_SwapIsAtomicView(t *testing.T) {
	store := NewStore()

	first := NewSnapshot()
	first.Flags["a"] = &Flag{Key: "a", Enabled: true}
	store.Swap(first)

	second := first.Clone()
	second.Flags["b"] = &Flag{Key: "b", Enabled: true}
	store.Swap(second)

	snap := store.Load()
	if _, ok := snap.Flag("a"); !ok {
		t.Fatalf("flag a missing after swap")
	}
	if _, ok := snap.Flag("b"); !ok {
		t.Fatalf("flag b missing after swap")
	}
	// The first snapshot must be untouched by the clone-and-extend.
	if _, ok := first.Flag("b"); ok {
		t.Fatalf("clone leaked a write into the published snapshot")
	}
}

func TestStore_ConcurrentReadersDuringSwaps(t *testing.T) {
	store := NewStore()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			next := store.Load().Clone()
			next.Flags["hot"] = &Flag{Key: "hot", Enabled: i%2 == 0, RolloutPercent: 100}
			store.Swap(next)
		}
		close(stop)
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := store.Load()
				if snap == nil {
					t.Errorf("nil snapshot observed")
					return
				}
				if f, ok := snap.Flag("hot"); ok && f.Key != "hot" {
					t.Errorf("torn read: %+v", f)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestStore_SwapNilResetsToEmpty(t *testing.T) {
	store := NewStore()
	next := NewSnapshot()
	next.Flags["a"] = &Flag{Key: "a"}
	store.Swap(next)
	store.Swap(nil)
	if len(store.Load().Flags) != 0 {
		t.Fatalf("nil swap should publish an empty snapshot")
	}
}
