package media

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

// TargetSampleRate is the fixed rate all audio is resampled to before
// feature extraction.
const TargetSampleRate = 16000

// maxAudioSeconds caps decoded audio length so pathological inputs bound
// their own cost.
const maxAudioSeconds = 600

// DecodeAudio decodes WAV/PCM bytes into mono float64 samples at
// TargetSampleRate and reports the clip duration in seconds.
func DecodeAudio(data []byte) (samples []float64, duration float64, err error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("empty audio data")
	}
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("decode audio: not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode audio: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("decode audio: no samples")
	}

	srcRate := buf.Format.SampleRate
	channels := buf.Format.NumChannels
	if srcRate <= 0 || channels <= 0 {
		return nil, 0, fmt.Errorf("decode audio: invalid format %d Hz / %d ch", srcRate, channels)
	}

	// Downmix to mono, normalize to [-1,1].
	bitDepth := dec.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	frames := len(buf.Data) / channels
	if frames > srcRate*maxAudioSeconds {
		frames = srcRate * maxAudioSeconds
	}
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}

	duration = float64(frames) / float64(srcRate)
	return resample(mono, srcRate, TargetSampleRate), duration, nil
}

// resample converts a sample buffer between rates with linear interpolation.
func resample(in []float64, from, to int) []float64 {
	if from == to || len(in) == 0 {
		return in
	}
	outLen := int(float64(len(in)) * float64(to) / float64(from))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float64, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j+1 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
