package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrImageDecode is returned when uploaded bytes are not a supported image.
var ErrImageDecode = errors.New("image cannot be decoded")

const (
	// maxImageSide bounds the longest side sent to the vision models; BLIP
	// and ViT resize to a few hundred pixels anyway.
	maxImageSide = 1024
	jpegQuality  = 92

	// maxImagePixels bounds decoded memory; a few MB of compressed bytes can
	// describe an image far too large to hold in RAM.
	maxImagePixels = 50_000_000
)

// PreparedImage is an upload converted to a 3-channel RGB JPEG.
type PreparedImage struct {
	Data         []byte
	SourceFormat string // format the upload was decoded as
	Width        int
	Height       int
}

// DataURL returns the image as a base64 data URL for chat-style APIs.
func (p *PreparedImage) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// PrepareImage decodes jpeg, png, gif or webp bytes, flattens any alpha onto
// white, downsizes oversized images and re-encodes the result as JPEG.
func PrepareImage(data []byte) (*PreparedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: dimensions %dx%d exceed %d pixels", ErrImageDecode, cfg.Width, cfg.Height, maxImagePixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	bounds := src.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), maxImageSide)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image as jpeg: %w", err)
	}

	return &PreparedImage{
		Data:         buf.Bytes(),
		SourceFormat: format,
		Width:        width,
		Height:       height,
	}, nil
}

// scaledSize fits w×h inside limit×limit, keeping the aspect ratio.
func scaledSize(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}
