package slots

import "math/bits"

// BitSet is a compact set of slot indexes.
type BitSet struct {
	words []uint64
}

// NewBitSet creates a BitSet sized for n slots.
func NewBitSet(n int) *BitSet {
	return &BitSet{words: make([]uint64, (n+63)/64)}
}

// Set adds i to the set.
func (b *BitSet) Set(i int) {
	w := i / 64
	if w >= len(b.words) {
		grown := make([]uint64, w+1)
		copy(grown, b.words)
		b.words = grown
	}
	b.words[w] |= 1 << (uint(i) % 64)
}

// Has reports whether i is in the set.
func (b *BitSet) Has(i int) bool {
	w := i / 64
	if i < 0 || w >= len(b.words) {
		return false
	}
	return b.words[w]&(1<<(uint(i)%64)) != 0
}

// Count returns the number of elements in the set.
func (b *BitSet) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Indexes returns the elements in ascending order.
func (b *BitSet) Indexes() []int {
	var out []int
	for i, w := range b.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			out = append(out, i*64+bit)
			w &= w - 1
		}
	}
	return out
}
