package hash

import "encoding/hex"

// Similarity scores two hash strings in [0,1]. Equal-length hex strings are
// scored as 1 − hamming/bits; unequal lengths fall back to a generic
// sequence-similarity ratio. Symmetric in its arguments.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if len(a) == len(b) {
		if sim, ok := hammingSimilarity(a, b); ok {
			return sim
		}
	}
	return sequenceRatio(a, b)
}

// hammingSimilarity returns 1 − hamming_distance/bit_length for two
// equal-length hex strings. ok is false when either side is not valid hex.
func hammingSimilarity(a, b string) (float64, bool) {
	ba, err := hex.DecodeString(a)
	if err != nil {
		return 0, false
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return 0, false
	}
	dist := 0
	for i := range ba {
		dist += popcount(ba[i] ^ bb[i])
	}
	bits := len(ba) * 8
	return 1 - float64(dist)/float64(bits), true
}

func popcount(x byte) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

// sequenceRatio is a classic similarity ratio: 2·LCS(a,b) / (len(a)+len(b)).
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	// Single-row LCS table; hashes are short strings.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}
