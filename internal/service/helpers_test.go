package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
)

// pngBytes renders a small w×h PNG with a transparent corner.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeCaptioner struct {
	caption string
	err     error
}

func (f *fakeCaptioner) Caption(context.Context, *PreparedImage) (string, error) {
	return f.caption, f.err
}

type fakeDescriber struct {
	err error
}

func (f *fakeDescriber) Describe(_ context.Context, caption string) (domain.Description, error) {
	if f.err != nil {
		return domain.Description{}, f.err
	}
	return domain.Description{
		First:  "Based on the image caption: " + caption + ".",
		Second: "It was a quiet day.",
	}, nil
}

type fakeCategorizer struct {
	label string
	err   error
}

func (f *fakeCategorizer) Categorize(context.Context, *PreparedImage) (string, error) {
	return f.label, f.err
}

type fakeSpeech struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return []byte("ID3" + text), nil
}

type fakeGenerations struct {
	mu   sync.Mutex
	rows []*domain.Generation
}

func (f *fakeGenerations) Create(_ context.Context, g *domain.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *g
	f.rows = append(f.rows, &copied)
	return nil
}

type fakeGenerator struct {
	output string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.output, f.err
}
