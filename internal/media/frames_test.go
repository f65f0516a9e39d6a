package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func paletted(shade uint8) *image.Paletted {
	p := image.NewPaletted(image.Rect(0, 0, 32, 32), color.Palette{
		color.RGBA{A: 255},
		color.RGBA{R: shade, G: shade, B: shade, A: 255},
	})
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			p.SetColorIndex(x, y, 1)
		}
	}
	return p
}

func animatedGIF(t *testing.T, frames int, delayCS int) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: 32, Height: 32}}
	for i := 0; i < frames; i++ {
		g.Image = append(g.Image, paletted(uint8(i*255/frames)))
		g.Delay = append(g.Delay, delayCS)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func TestSampleFrames_AnimatedGIF(t *testing.T) {
	src := NewGIFFrameSource()
	// 40 frames × 0.25 s = 10 s of timeline.
	data := animatedGIF(t, 40, 25)

	frames, duration, err := src.SampleFrames(data, 1.0, 100)
	if err != nil {
		t.Fatalf("SampleFrames: %v", err)
	}
	if duration < 9.9 || duration > 10.1 {
		t.Errorf("duration = %v, want ~10s", duration)
	}
	if len(frames) != 10 {
		t.Errorf("sampled %d frames at 1/s over 10s, want 10", len(frames))
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Timestamp <= frames[i-1].Timestamp {
			t.Fatalf("timestamps not increasing at %d", i)
		}
	}
}

func TestSampleFrames_FrameCap(t *testing.T) {
	src := NewGIFFrameSource()
	data := animatedGIF(t, 60, 100) // 60 s timeline

	frames, _, err := src.SampleFrames(data, 2.0, 15)
	if err != nil {
		t.Fatalf("SampleFrames: %v", err)
	}
	if len(frames) != 15 {
		t.Errorf("cap not honored: got %d frames, want 15", len(frames))
	}
}

func TestSampleFrames_StillImageFallback(t *testing.T) {
	src := NewGIFFrameSource()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	frames, duration, err := src.SampleFrames(encodePNG(t, img), 1.0, 100)
	if err != nil {
		t.Fatalf("SampleFrames: %v", err)
	}
	if len(frames) != 1 || duration != 0 {
		t.Errorf("still fallback: got %d frames, duration %v; want 1 frame, 0s", len(frames), duration)
	}
}

func TestSampleFrames_Garbage(t *testing.T) {
	src := NewGIFFrameSource()
	if _, _, err := src.SampleFrames([]byte("not a video"), 1.0, 10); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEvenSubsample(t *testing.T) {
	frames := make([]Frame, 30)
	for i := range frames {
		frames[i].Timestamp = float64(i)
	}

	sub := EvenSubsample(frames, 10)
	if len(sub) != 10 {
		t.Fatalf("got %d frames, want 10", len(sub))
	}
	if sub[0].Timestamp != 0 {
		t.Errorf("first subsampled frame should be the first frame")
	}

	if got := EvenSubsample(frames[:5], 10); len(got) != 5 {
		t.Errorf("short input should pass through, got %d", len(got))
	}
	if got := EvenSubsample(nil, 10); got != nil {
		t.Errorf("nil input should return nil")
	}
}

func TestCentralFrame(t *testing.T) {
	frames := []Frame{{Timestamp: 0}, {Timestamp: 1}, {Timestamp: 2}}
	if c := CentralFrame(frames); c.Timestamp != 1 {
		t.Errorf("central frame timestamp = %v, want 1", c.Timestamp)
	}
}

func TestDecodeImage_Formats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	data := encodePNG(t, img)

	decoded, format, err := DecodeImage(data)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("unexpected bounds %v", decoded.Bounds())
	}

	if _, _, err := DecodeImage(nil); err == nil {
		t.Error("expected error for empty data")
	}
	if _, _, err := DecodeImage([]byte("garbage")); err == nil {
		t.Error("expected error for undecodable data")
	}
}
