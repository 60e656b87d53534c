package ast

import "testing"

func TestArenaPointersSurviveGrowth(t *testing.T) {
	a := NewArena[int](0)
	first := a.Get(a.Allocate(7))
	for i := range 3 << chunkBits {
		a.Allocate(i)
	}
	if *first != 7 {
		t.Fatalf("first value moved: %d", *first)
	}
	if a.Len() != 3<<chunkBits+1 {
		t.Fatalf("Len = %d", a.Len())
	}
	if got := *a.Get(a.Len()); got != 3<<chunkBits-1 {
		t.Fatalf("last = %d", got)
	}
	if a.Get(0) != nil || a.Get(a.Len()+1) != nil {
		t.Fatal("out of range index must return nil")
	}
}
