package stream

import (
	"context"
	"slices"
	"testing"
	"time"
)

func collect[T any](in <-chan T) []T {
	out := []T{}
	for element := range in {
		out = append(out, element)
	}
	return out
}

func isEven(n int) bool {
	return n%2 == 0
}

func TestSliceFilter(t *testing.T) {
	data := []int{0, 1, 2, 3, 4, 5, 6}
	ctx := context.Background()
	result := collect(Filter(ctx, isEven, Slice(ctx, data)))

	if !slices.Equal([]int{0, 2, 4, 6}, result) {
		t.Errorf("Expected [0, 2, 4, 6], got %v", result)
	}
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	batches := collect(Batch(ctx, 2, Slice(ctx, []int{1, 2, 3, 4, 5})))
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %v", batches)
	}
	if !slices.Equal(batches[2], []int{5}) {
		t.Errorf("Expected short last batch [5], got %v", batches[2])
	}
	if got := collect(Batch(ctx, 2, Slice(ctx, []int{}))); len(got) != 0 {
		t.Errorf("Expected no batches, got %v", got)
	}
}

func TestMeter(t *testing.T) {
	m := NewMeter("Test", time.Hour)
	defer m.Stop()
	for i := 0; i < 47; i++ {
		m.Mark(time.Now(), 10)
	}
	if v := m.Count(); v != 47 {
		t.Fatalf("have %d want %d", v, 47)
	}
}
