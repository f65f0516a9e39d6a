// Package local provides a deterministic offline embedder. It is the default
// provider: fingerprints stay comparable without any network dependency, at
// the cost of purely lexical / low-level visual semantics.
package local

import (
	"context"
	"hash/fnv"
	"image"
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
)

// Dimensions is the fixed width of locally produced embeddings.
const Dimensions = 256

// Embedder hashes token and pixel statistics into fixed-width vectors.
// It is stateless and safe for concurrent use.
type Embedder struct{}

// New creates a local embedder.
func New() *Embedder { return &Embedder{} }

// EmbedText maps word bigrams into a feature-hashed vector. Identical text
// always produces the identical vector.
func (e *Embedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, Dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for i, w := range words {
		addToken(vec, w)
		if i+1 < len(words) {
			addToken(vec, w+" "+words[i+1])
		}
	}

	return normalize(vec), nil
}

// EmbedImage pools the frame to a coarse grid and hashes per-cell luminance
// and chroma into the vector, so visually similar frames land near each other.
func (e *Embedder) EmbedImage(_ context.Context, img image.Image) ([]float32, error) {
	const grid = 8

	small := image.NewRGBA(image.Rect(0, 0, grid, grid))
	draw.BiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Over, nil)

	vec := make([]float64, Dimensions)
	for y := 0; y < grid; y++ {
		for x := 0; x < grid; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			rf, gf, bf := float64(r)/65535, float64(g)/65535, float64(b)/65535

			cell := y*grid + x
			base := (cell * 4) % Dimensions
			vec[base] += 0.299*rf + 0.587*gf + 0.114*bf
			vec[base+1] += rf - gf
			vec[base+2] += gf - bf
			vec[base+3] += bf - rf
		}
	}

	return normalize(vec), nil
}

func addToken(vec []float64, token string) {
	h := fnv.New32a()
	h.Write([]byte(token))
	sum := h.Sum32()

	idx := int(sum % Dimensions)
	sign := 1.0
	if sum&0x80000000 != 0 {
		sign = -1.0
	}
	vec[idx] += sign
}

func normalize(vec []float64) []float32 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
