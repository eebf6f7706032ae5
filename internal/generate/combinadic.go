package generate

import "sort"

// Choose returns C(n, k), or 0 when k > n
func Choose(n, k int) int64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := int64(1)
	for i := 1; i <= k; i++ {
		r = r * int64(n-k+i) / int64(i)
	}
	return r
}

// Unrank maps rank in [0, C(n, k)) to the k-subset of [0, n) at that position
// in the combinatorial number system, ascending. Pairs and triples are
// enumerated this way instead of being materialized.
func Unrank(rank int64, n, k int) []int {
	out := make([]int, k)
	m := n
	for i := k; i >= 1; i-- {
		// largest c < m with C(c, i) <= rank
		c := sort.Search(m, func(c int) bool { return Choose(c, i) > rank }) - 1
		out[i-1] = c
		rank -= Choose(c, i)
		m = c
	}
	return out
}
