// Package capture composites highlight screenshots of a match and keeps a
// small rotating set of them.
package capture

import "github.com/tomz197/nosecondbest/internal/object"

// Buffer holds at most Capacity encoded screenshots. Once full, a regular
// capture replaces a random slot with probability ReplaceChance; a final
// capture always replaces one.
type Buffer struct {
	capacity      int
	replaceChance float64
	rng           object.Rand

	shots [][]byte
	total int
}

// NewBuffer creates an empty buffer. capacity below 1 is treated as 1.
func NewBuffer(capacity int, replaceChance float64, r object.Rand) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	if r == nil {
		r = object.GlobalRand{}
	}
	return &Buffer{
		capacity:      capacity,
		replaceChance: replaceChance,
		rng:           r,
		shots:         make([][]byte, 0, capacity),
	}
}

// Add offers a screenshot to the buffer and reports whether it was kept.
// Every offer counts toward Total.
func (b *Buffer) Add(shot []byte, final bool) bool {
	b.total++
	if len(b.shots) < b.capacity {
		b.shots = append(b.shots, shot)
		return true
	}
	if !final && b.rng.Float64() >= b.replaceChance {
		return false
	}
	b.shots[b.rng.IntN(b.capacity)] = shot
	return true
}

// Len returns the number of stored screenshots.
func (b *Buffer) Len() int {
	return len(b.shots)
}

// Total returns how many screenshots were offered since the last Reset.
func (b *Buffer) Total() int {
	return b.total
}

// Shots returns the stored screenshots in slot order. The outer slice is a
// copy; the image bytes are shared and must not be modified.
func (b *Buffer) Shots() [][]byte {
	return append([][]byte(nil), b.shots...)
}

// Reset empties the buffer for a new match.
func (b *Buffer) Reset() {
	clear(b.shots)
	b.shots = b.shots[:0]
	b.total = 0
}
