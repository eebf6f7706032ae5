package generate

import (
	"math/bits"
)

// Permutation is a seeded affine bijection i -> (a*i + c) mod size over
// [0, size). gcd(a, size) = 1 makes it a bijection, so every instance is
// visited exactly once without materializing the index space.
type Permutation struct {
	size uint64
	a    uint64
	c    uint64
}

// NewPermutation derives the multiplier and offset from seed
func NewPermutation(size int64, seed uint64) Permutation {
	if size <= 1 {
		return Permutation{size: uint64(max(size, 0)), a: 1}
	}
	n := uint64(size)
	s := seed
	a := splitmix(&s)%n | 1
	for gcd(a, n) != 1 {
		a = (a + 2) % n
		if a == 0 {
			a = 1
		}
	}
	return Permutation{size: n, a: a, c: splitmix(&s) % n}
}

// Size returns the size of the permuted space
func (p Permutation) Size() int64 {
	return int64(p.size)
}

// At maps position i to its permuted index
func (p Permutation) At(i int64) int64 {
	if p.size <= 1 {
		return 0
	}
	hi, lo := bits.Mul64(p.a, uint64(i))
	// (hi, lo) mod size, then add c without overflowing
	r := bits.Rem64(hi, lo, p.size)
	r, carry := bits.Add64(r, p.c, 0)
	if carry != 0 || r >= p.size {
		r -= p.size
	}
	return int64(r)
}

// Visit returns the index partition visits at offset, or false once the
// partition is exhausted. Partition p of n covers positions p, p+n, p+2n...
func (p Permutation) Visit(partition, partitions int, offset int64) (int64, bool) {
	pos := int64(partition) + offset*int64(partitions)
	if partition < 0 || partitions <= 0 || offset < 0 || pos >= int64(p.size) {
		return 0, false
	}
	return p.At(pos), true
}

// PartitionSize is the number of positions partition p of n visits
func (p Permutation) PartitionSize(partition, partitions int) int64 {
	size := int64(p.size)
	if partitions <= 0 || int64(partition) >= size {
		return 0
	}
	return (size - int64(partition) + int64(partitions) - 1) / int64(partitions)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// splitmix is splitmix64; it advances s and returns the next value
func splitmix(s *uint64) uint64 {
	*s += 0x9e3779b97f4a7c15
	z := *s
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
