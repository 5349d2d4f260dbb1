// SPDX-License-Identifier: MIT
package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ManuGH/geoanonymizer/spatial"
	"github.com/ManuGH/geoanonymizer/spatial/mask"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "48.2,16.37")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty store")
	}

	want := spatial.New(48.21, 16.38)
	if err := s.Save(ctx, "48.2,16.37", want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, ok, err := s.Load(ctx, "48.2,16.37")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected hit after save")
	}
	if got != want {
		t.Errorf("Load() = %v, want %v", got, want)
	}

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d,%d", n, j)
				if err := s.Save(ctx, key, spatial.New(float64(n), float64(j))); err != nil {
					t.Errorf("Save() failed: %v", err)
					return
				}
				if _, _, err := s.Load(ctx, key); err != nil {
					t.Errorf("Load() failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 800 {
		t.Errorf("Len() = %d, want 800", s.Len())
	}
}

func TestMemoryStoreBacksConsistentMasking(t *testing.T) {
	s := NewMemoryStore()
	strategy := mask.Consistent{
		Inner: mask.OnCircle(0.01),
		Store: s,
	}
	ctx := context.Background()

	p := spatial.New(48.2082, 16.3738)
	first, err := strategy.Apply(ctx, p)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	second, err := strategy.Apply(ctx, p)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if first != second {
		t.Errorf("consistent masking diverged: %v vs %v", first, second)
	}
}
