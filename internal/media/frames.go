package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
)

// Frame is one sampled video frame with its position on the timeline.
type Frame struct {
	Image     image.Image
	Timestamp float64 // seconds from start
}

// FrameSource samples frames from encoded video data at a fixed temporal
// rate. Implementations must honor maxFrames as a hard cap so long inputs
// bound their own cost instead of relying on caller cancellation.
type FrameSource interface {
	SampleFrames(data []byte, ratePerSecond float64, maxFrames int) (frames []Frame, duration float64, err error)
}

// GIFFrameSource is the built-in FrameSource. It walks animated-GIF
// timelines natively and treats any other decodable image as a one-frame
// video. External samplers (e.g. an ffmpeg sidecar) plug in behind the same
// interface.
type GIFFrameSource struct{}

// NewGIFFrameSource creates the built-in frame source.
func NewGIFFrameSource() *GIFFrameSource { return &GIFFrameSource{} }

// SampleFrames decodes the timeline and picks the frame nearest each sample
// instant, one per 1/ratePerSecond seconds, capped at maxFrames.
func (s *GIFFrameSource) SampleFrames(data []byte, ratePerSecond float64, maxFrames int) ([]Frame, float64, error) {
	if ratePerSecond <= 0 {
		return nil, 0, fmt.Errorf("sample rate must be positive, got %v", ratePerSecond)
	}
	if maxFrames <= 0 {
		return nil, 0, fmt.Errorf("max frames must be positive, got %d", maxFrames)
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		// Not an animated GIF; fall back to a single still frame.
		img, _, stillErr := DecodeImage(data)
		if stillErr != nil {
			return nil, 0, fmt.Errorf("decode video: %w", err)
		}
		return []Frame{{Image: img, Timestamp: 0}}, 0, nil
	}
	if len(g.Image) == 0 {
		return nil, 0, fmt.Errorf("decode video: no frames")
	}

	// Flatten the timeline. GIF delays are hundredths of a second; zero
	// delays render as the common 10 cs fallback.
	type timed struct {
		img   image.Image
		start float64
	}
	timeline := make([]timed, 0, len(g.Image))
	canvas := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	var clock float64
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		snapshot := image.NewRGBA(canvas.Bounds())
		draw.Draw(snapshot, canvas.Bounds(), canvas, canvas.Bounds().Min, draw.Src)
		timeline = append(timeline, timed{img: snapshot, start: clock})

		delay := 0.10
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = float64(g.Delay[i]) / 100
		}
		clock += delay
	}
	duration := clock

	interval := 1 / ratePerSecond
	frames := make([]Frame, 0, maxFrames)
	idx := 0
	for t := 0.0; t < duration && len(frames) < maxFrames; t += interval {
		for idx+1 < len(timeline) && timeline[idx+1].start <= t {
			idx++
		}
		frames = append(frames, Frame{Image: timeline[idx].img, Timestamp: t})
	}
	if len(frames) == 0 {
		frames = append(frames, Frame{Image: timeline[0].img, Timestamp: 0})
	}
	return frames, duration, nil
}

// CentralFrame returns the temporally central frame of a sample set.
func CentralFrame(frames []Frame) Frame {
	return frames[len(frames)/2]
}

// EvenSubsample picks up to n frames evenly spaced across the sample set,
// always including the first frame.
func EvenSubsample(frames []Frame, n int) []Frame {
	if n <= 0 || len(frames) == 0 {
		return nil
	}
	if len(frames) <= n {
		return frames
	}
	out := make([]Frame, 0, n)
	step := float64(len(frames)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, frames[int(float64(i)*step)])
	}
	return out
}
