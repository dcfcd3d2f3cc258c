package useragent

import (
	"sync"
	"testing"
)

func TestPool_Sequential(t *testing.T) {
	p := NewPool([]string{"A", "B", "C"}, Sequential)

	for _, want := range []string{"A", "B", "C", "A"} {
		if got := p.Pick(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestPool_DefaultsToMozilla(t *testing.T) {
	p := NewPool(nil, "")
	if p.Len() != 1 {
		t.Fatalf("expected single-entry pool, got %d", p.Len())
	}
	if got := p.Pick(); got != Default {
		t.Errorf("expected %q, got %q", Default, got)
	}

	blank := NewPool([]string{"  ", ""}, Random)
	if got := blank.Pick(); got != Default {
		t.Errorf("expected blank entries to fall back to %q, got %q", Default, got)
	}
}

func TestPool_Random(t *testing.T) {
	p := NewPool([]string{"A", "B"}, Random)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := p.Pick()
		if got != "A" && got != "B" {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Errorf("expected to see both A and B, got %v", seen)
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool([]string{"X", "Y", "Z"}, Sequential)

	const routines = 50
	const iterations = 300
	results := make(chan string, routines*iterations)

	var wg sync.WaitGroup
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				results <- p.Pick()
			}
		}()
	}
	wg.Wait()
	close(results)

	counts := map[string]int{}
	for r := range results {
		counts[r]++
	}
	want := routines * iterations / 3
	for k, c := range counts {
		if c != want {
			t.Errorf("expected %d hits for %s, got %d", want, k, c)
		}
	}
}

func TestPool_Empty(t *testing.T) {
	p := &Pool{}
	if got := p.Pick(); got != "" {
		t.Errorf("expected empty string, got %s", got)
	}
	p.strategy = Random
	if got := p.Pick(); got != "" {
		t.Errorf("expected empty string, got %s", got)
	}
}
