// Package bitmap provides a small, memory-efficient bitset keyed by row
// position. Columns use it as their missing-value mask so a million-row
// column costs 125 KiB of flags instead of a []bool.
package bitmap

import "math/bits"

// Bitmap represents a bitset backed by a slice of uint64 words.
// Each bit corresponds to a non-negative row index. The zero value is an
// empty bitmap ready to use.
type Bitmap struct {
	data []uint64
}

// New allocates a bitmap with room for bits in the range [0, maxID).
// The bitmap still grows on demand; maxID only sizes the first allocation.
func New(maxID int) *Bitmap {
	if maxID <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (maxID+63)/64)}
}

// Add sets the bit for id, growing the backing slice when needed.
// Negative ids are ignored.
func (b *Bitmap) Add(id int) {
	if id < 0 {
		return
	}
	word := id / 64
	if word >= len(b.data) {
		grown := make([]uint64, word+1, 2*(word+1))
		copy(grown, b.data)
		b.data = grown
	}
	b.data[word] |= 1 << uint(id%64)
}

// Has reports whether the bit for id is set. Negative or never-added ids
// return false.
func (b *Bitmap) Has(id int) bool {
	if b == nil || id < 0 {
		return false
	}
	word := id / 64
	if word >= len(b.data) {
		return false
	}
	return b.data[word]&(1<<uint(id%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount64(w)
	}
	return n
}
