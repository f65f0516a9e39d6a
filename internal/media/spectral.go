package media

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

const (
	fftSize  = 1024
	hopSize  = 512
	melBands = 32
	melMinHz = 0.0
	melMaxHz = 8000.0
)

// SpectralFeatures reduces a mono sample buffer to a compact fixed-width
// feature vector: per-band log energy over a mel-spaced filter bank,
// mean-pooled over time, followed by the per-band standard deviations.
// The result always has 2×melBands dimensions.
func SpectralFeatures(samples []float64, sampleRate int) []float32 {
	bank := melFilterBank(sampleRate)
	fft := fourier.NewFFT(fftSize)
	window := hannWindow(fftSize)

	// Per-frame band energies.
	var frames [][]float64
	buf := make([]float64, fftSize)
	for start := 0; start+fftSize <= len(samples); start += hopSize {
		for i := 0; i < fftSize; i++ {
			buf[i] = samples[start+i] * window[i]
		}
		coeffs := fft.Coefficients(nil, buf)
		power := make([]float64, len(coeffs))
		for i, c := range coeffs {
			power[i] = real(c)*real(c) + imag(c)*imag(c)
		}

		bands := make([]float64, melBands)
		for b, filter := range bank {
			var e float64
			for _, bin := range filter {
				e += power[bin.index] * bin.weight
			}
			bands[b] = math.Log1p(e)
		}
		frames = append(frames, bands)
	}

	out := make([]float32, 2*melBands)
	if len(frames) == 0 {
		// Shorter than one frame; keep the shape, zero content.
		return out
	}

	col := make([]float64, len(frames))
	for b := 0; b < melBands; b++ {
		for i, fr := range frames {
			col[i] = fr[b]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if math.IsNaN(std) {
			std = 0
		}
		out[b] = float32(mean)
		out[melBands+b] = float32(std)
	}
	return out
}

type filterBin struct {
	index  int
	weight float64
}

// melFilterBank builds melBands triangular filters between melMinHz and
// melMaxHz, expressed over FFT bin indexes.
func melFilterBank(sampleRate int) [][]filterBin {
	hzToMel := func(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }
	melToHz := func(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

	maxHz := melMaxHz
	if nyquist := float64(sampleRate) / 2; maxHz > nyquist {
		maxHz = nyquist
	}

	lo, hi := hzToMel(melMinHz), hzToMel(maxHz)
	centers := make([]float64, melBands+2)
	for i := range centers {
		centers[i] = melToHz(lo + (hi-lo)*float64(i)/float64(melBands+1))
	}

	binHz := float64(sampleRate) / fftSize
	bank := make([][]filterBin, melBands)
	for b := 0; b < melBands; b++ {
		left, center, right := centers[b], centers[b+1], centers[b+2]
		var filter []filterBin
		for idx := 0; idx <= fftSize/2; idx++ {
			hz := float64(idx) * binHz
			var w float64
			switch {
			case hz > left && hz <= center:
				w = (hz - left) / (center - left)
			case hz > center && hz < right:
				w = (right - hz) / (right - center)
			}
			if w > 0 {
				filter = append(filter, filterBin{index: idx, weight: w})
			}
		}
		bank[b] = filter
	}
	return bank
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
