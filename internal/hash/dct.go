package hash

import "math"

// dct2d computes a separable 2-D type-II DCT of a square grid. The input is
// row-major side×side; the output uses the same layout with frequency (0,0)
// at index 0.
func dct2d(grid []float64, side int) []float64 {
	cosTable := make([]float64, side*side)
	for k := 0; k < side; k++ {
		for n := 0; n < side; n++ {
			cosTable[k*side+n] = math.Cos(math.Pi * float64(k) * (2*float64(n) + 1) / (2 * float64(side)))
		}
	}

	// Rows, then columns.
	tmp := make([]float64, side*side)
	for y := 0; y < side; y++ {
		for k := 0; k < side; k++ {
			var sum float64
			for n := 0; n < side; n++ {
				sum += grid[y*side+n] * cosTable[k*side+n]
			}
			tmp[y*side+k] = sum
		}
	}

	out := make([]float64, side*side)
	for x := 0; x < side; x++ {
		for k := 0; k < side; k++ {
			var sum float64
			for n := 0; n < side; n++ {
				sum += tmp[n*side+x] * cosTable[k*side+n]
			}
			out[k*side+x] = sum
		}
	}
	return out
}

// haarLL applies `levels` rounds of a 2-D Haar decomposition and returns the
// approximation (LL) band. Each round halves the side length.
func haarLL(grid []float64, side int, levels int) []float64 {
	cur := append([]float64(nil), grid...)
	s := side
	for l := 0; l < levels; l++ {
		half := s / 2
		next := make([]float64, half*half)
		for y := 0; y < half; y++ {
			for x := 0; x < half; x++ {
				a := cur[(2*y)*s+2*x]
				b := cur[(2*y)*s+2*x+1]
				c := cur[(2*y+1)*s+2*x]
				d := cur[(2*y+1)*s+2*x+1]
				next[y*half+x] = (a + b + c + d) / 4
			}
		}
		cur = next
		s = half
	}
	return cur
}
