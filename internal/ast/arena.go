package ast

import (
	"fmt"

	"fortio.org/safecast"
)

const chunkBits = 10

// Arena stores values in fixed-size chunks, so a pointer returned by Get
// stays valid after later allocations. Indices are 1-based; 0 is "none".
type Arena[T any] struct {
	chunks [][]T
	n      uint32
}

func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{chunks: make([][]T, 0, capHint>>chunkBits+1)}
}

// Allocate appends value and returns its index.
func (a *Arena[T]) Allocate(value T) uint32 {
	c := a.n >> chunkBits
	if int(c) == len(a.chunks) {
		a.chunks = append(a.chunks, make([]T, 0, 1<<chunkBits))
	}
	a.chunks[c] = append(a.chunks[c], value)
	next, err := safecast.Conv[uint32](uint64(a.n) + 1)
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	a.n = next
	return a.n
}

// Get returns the value at index or nil when index is 0 or unallocated.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || index > a.n {
		return nil
	}
	i := index - 1
	return &a.chunks[i>>chunkBits][i&(1<<chunkBits-1)]
}

func (a *Arena[T]) Len() uint32 {
	return a.n
}
