// Package hash computes the family of fixed-length perceptual hashes used by
// content fingerprints. All five hashes are emitted as 64-character hex
// strings (256 bits) regardless of source resolution, so hashes from
// different source sizes remain directly comparable by Hamming distance.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"
	"unicode"

	xdraw "golang.org/x/image/draw"
)

// gridSize is the bit grid used by every perceptual hash: 16×16 = 256 bits.
const gridSize = 16

// BitLength is the length in bits of every hash this package produces.
const BitLength = gridSize * gridSize

// HexLength is the length in hex characters of every hash.
const HexLength = BitLength / 4

// Set holds the five perceptual hashes of one frame.
type Set struct {
	Perceptual string
	Average    string
	Difference string
	Wavelet    string
	Color      string
}

// Extractor computes perceptual hashes from decoded frames. It is stateless
// and safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a hash extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// ExtractAll computes all five hashes from a single decode of the frame.
func (e *Extractor) ExtractAll(img image.Image) (Set, error) {
	if img == nil {
		return Set{}, fmt.Errorf("nil frame")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Set{}, fmt.Errorf("empty frame %dx%d", b.Dx(), b.Dy())
	}
	return Set{
		Perceptual: e.Perceptual(img),
		Average:    e.Average(img),
		Difference: e.Difference(img),
		Wavelet:    e.Wavelet(img),
		Color:      e.Color(img),
	}, nil
}

// Average computes the average hash: each bit is 1 when the pixel luminance
// on the 16×16 grid exceeds the grid mean.
func (e *Extractor) Average(img image.Image) string {
	g := luminanceGrid(img, gridSize, gridSize)
	mean := 0.0
	for _, v := range g {
		mean += v
	}
	mean /= float64(len(g))

	bits := make([]bool, BitLength)
	for i, v := range g {
		bits[i] = v > mean
	}
	return bitsToHex(bits)
}

// Difference computes the difference hash: each bit compares a pixel against
// its right neighbor on a 17×16 grid.
func (e *Extractor) Difference(img image.Image) string {
	g := luminanceGrid(img, gridSize+1, gridSize)
	bits := make([]bool, BitLength)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			bits[y*gridSize+x] = g[y*(gridSize+1)+x] < g[y*(gridSize+1)+x+1]
		}
	}
	return bitsToHex(bits)
}

// Perceptual computes the DCT hash: a 64×64 luminance grid is transformed
// with a 2-D DCT and the low-frequency 16×16 block (minus the flat DC term)
// is thresholded against the mean absolute magnitude of its AC coefficients.
// A median threshold sits at ~0 on smooth content, where near-zero
// coefficients flip bits under imperceptible brightness changes.
func (e *Extractor) Perceptual(img image.Image) string {
	const dctSize = 64
	g := luminanceGrid(img, dctSize, dctSize)
	coeffs := dct2d(g, dctSize)

	low := make([]float64, 0, BitLength)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			low = append(low, coeffs[y*dctSize+x])
		}
	}
	low[0] = 0 // DC term carries only overall brightness

	var sum float64
	for _, v := range low[1:] {
		sum += math.Abs(v)
	}
	threshold := sum / float64(len(low)-1)

	bits := make([]bool, BitLength)
	for i, v := range low {
		bits[i] = v > threshold
	}
	return bitsToHex(bits)
}

// Wavelet computes the Haar-wavelet hash: two Haar decomposition levels over
// a 64×64 luminance grid, thresholding the 16×16 approximation band against
// its median.
func (e *Extractor) Wavelet(img image.Image) string {
	const side = 64
	g := luminanceGrid(img, side, side)
	ll := haarLL(g, side, 2) // 64 -> 32 -> 16

	m := median(append([]float64(nil), ll...))
	bits := make([]bool, BitLength)
	for i, v := range ll {
		bits[i] = v > m
	}
	return bitsToHex(bits)
}

// Color computes a color-distribution hash: the frame is reduced to an 8×8
// RGB grid and each pixel contributes four bits (red, green, blue and
// saturation, each versus the grid mean of its channel).
func (e *Extractor) Color(img image.Image) string {
	const side = 8
	small := scale(img, side, side)

	r := make([]float64, side*side)
	g := make([]float64, side*side)
	b := make([]float64, side*side)
	s := make([]float64, side*side)
	var mr, mg, mb, ms float64
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			pr, pg, pb, _ := small.At(x, y).RGBA()
			i := y*side + x
			r[i] = float64(pr >> 8)
			g[i] = float64(pg >> 8)
			b[i] = float64(pb >> 8)
			s[i] = saturation(r[i], g[i], b[i])
			mr += r[i]
			mg += g[i]
			mb += b[i]
			ms += s[i]
		}
	}
	n := float64(side * side)
	mr, mg, mb, ms = mr/n, mg/n, mb/n, ms/n

	bits := make([]bool, BitLength)
	for i := 0; i < side*side; i++ {
		bits[i*4] = r[i] > mr
		bits[i*4+1] = g[i] > mg
		bits[i*4+2] = b[i] > mb
		bits[i*4+3] = s[i] > ms
	}
	return bitsToHex(bits)
}

// Digest returns the content-derived degenerate hash used for audio and raw
// text fingerprints: a SHA-256 digest truncated to the shared hex length.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:HexLength]
}

// NormalizedTextDigest digests text after lowercasing and collapsing all
// whitespace and punctuation, so byte-identical and
// identical-after-normalization text are separately detectable.
func NormalizedTextDigest(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return Digest([]byte(strings.TrimSpace(b.String())))
}

func saturation(r, g, b float64) float64 {
	maxC := r
	if g > maxC {
		maxC = g
	}
	if b > maxC {
		maxC = b
	}
	minC := r
	if g < minC {
		minC = g
	}
	if b < minC {
		minC = b
	}
	if maxC == 0 {
		return 0
	}
	return (maxC - minC) / maxC * 255
}

// scale resamples an image to w×h using bilinear interpolation.
func scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// luminanceGrid resamples the image to w×h and returns per-pixel luminance.
func luminanceGrid(img image.Image, w, h int) []float64 {
	small := scale(img, w, h)
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			out[y*w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return out
}

func bitsToHex(bits []bool) string {
	buf := make([]byte, len(bits)/8)
	for i, bit := range bits {
		if bit {
			buf[i/8] |= 1 << uint(7-i%8)
		}
	}
	return hex.EncodeToString(buf)
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
