package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

const (
	DefaultMaxEdge = 1024
	DefaultQuality = 85
)

// Encoder downsizes screenshots so the longest edge fits MaxEdge and
// re-encodes them as JPEG. It never upscales.
type Encoder struct {
	maxEdge int
	quality int
}

func New(maxEdge, quality int) *Encoder {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Encoder{maxEdge: maxEdge, quality: quality}
}

func (e *Encoder) Encode(_ context.Context, img domain.SourceImage) (domain.EncodedImage, error) {
	if len(img.Data) == 0 {
		return domain.EncodedImage{}, domain.WrapError(domain.ErrEncoding, "encode image", errors.New("empty image"))
	}

	src, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return domain.EncodedImage{}, domain.WrapError(domain.ErrEncoding, "decode image", fmt.Errorf("%s: %w", img.Filename, err))
	}

	width, height := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), e.maxEdge)
	if width == 0 || height == 0 {
		return domain.EncodedImage{}, domain.WrapError(domain.ErrEncoding, "decode image", fmt.Errorf("%s: empty %s bounds", img.Filename, format))
	}

	// JPEG has no alpha; paint transparent pixels onto white first.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: e.quality}); err != nil {
		return domain.EncodedImage{}, domain.WrapError(domain.ErrEncoding, "encode jpeg", err)
	}

	return domain.EncodedImage{
		Filename: img.Filename,
		MimeType: "image/jpeg",
		Data:     buf.Bytes(),
		Width:    width,
		Height:   height,
	}, nil
}

func fitWithin(width, height, maxEdge int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	if width >= height {
		h := int(float64(height) * float64(maxEdge) / float64(width))
		return maxEdge, max(h, 1)
	}
	w := int(float64(width) * float64(maxEdge) / float64(height))
	return max(w, 1), maxEdge
}
