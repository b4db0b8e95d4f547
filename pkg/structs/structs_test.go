package structs

import (
	"slices"
	"sync"
	"testing"
)

func TestSet(t *testing.T) {
	s := NewSet("b", "a")
	s.Add("c")
	s.Add("a")
	if s.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", s.Size())
	}
	if !s.Contains("c") || s.Contains("z") {
		t.Errorf("Contains() mismatch for %v", Sorted(s))
	}

	s.Remove("a")
	if got := Sorted(s); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Sorted() = %v, want [b c]", got)
	}
}

func TestSequence(t *testing.T) {
	var seq Sequence[uint32]
	if seq.Last() != 0 {
		t.Fatalf("Last() = %d before Next", seq.Last())
	}
	if a, b := seq.Next(), seq.Next(); a != 1 || b != 2 {
		t.Errorf("Next() = %d, %d, want 1, 2", a, b)
	}
}

func TestSequence_Concurrent(t *testing.T) {
	var seq Sequence[int64]
	var wg sync.WaitGroup
	var mu sync.Mutex
	got := NewSet[int64]()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := seq.Next()
			mu.Lock()
			got.Add(v)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if got.Size() != 100 || seq.Last() != 100 {
		t.Errorf("after 100 concurrent Next() got %d distinct values, Last() = %d", got.Size(), seq.Last())
	}
}
