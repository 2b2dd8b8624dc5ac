// Package raster owns the pixel buffer representation shared by every stage
// (straight-alpha RGBA, row-major, origin at 0,0) and its decode, encode and
// resize helpers.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Size limits for a drawing surface. Anything larger is treated like a
// canvas that could not be allocated.
const (
	MaxDimension = 16384
	MaxPixels    = 120_000_000
)

var (
	// ErrDecode is returned when source bytes are not a decodable image.
	ErrDecode = errors.New("decode error")
	// ErrContextUnavailable is returned when a drawing surface cannot be created.
	ErrContextUnavailable = errors.New("rendering context unavailable")
	// ErrEncode is returned when a buffer cannot be serialized.
	ErrEncode = errors.New("encode error")
)

// New allocates a transparent buffer of the given size.
func New(width, height int) (*image.NRGBA, error) {
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}
	return image.NewNRGBA(image.Rect(0, 0, width, height)), nil
}

// NewFilled allocates a buffer filled with a solid color.
func NewFilled(width, height int, c color.NRGBA) (*image.NRGBA, error) {
	img, err := New(width, height)
	if err != nil {
		return nil, err
	}
	Fill(img, c)
	return img, nil
}

// CheckSize validates that a surface of width x height can be allocated.
func CheckSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrContextUnavailable, width, height)
	}
	if width > MaxDimension || height > MaxDimension || width*height > MaxPixels {
		return fmt.Errorf("%w: size %dx%d exceeds limits", ErrContextUnavailable, width, height)
	}
	return nil
}

// Fill sets every pixel of img to c.
func Fill(img *image.NRGBA, c color.NRGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

// Clone returns an owned copy of img with bounds starting at 0,0.
func Clone(img image.Image) *image.NRGBA {
	if img == nil {
		return nil
	}
	return imaging.Clone(img)
}

// ToNRGBA returns img as a zero-origin *image.NRGBA with a tight stride,
// copying only when necessary.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	return imaging.Clone(img)
}

// DrawCentered composites src over dst so that src is centered.
func DrawCentered(dst *image.NRGBA, src image.Image) image.Rectangle {
	db := dst.Bounds()
	sb := src.Bounds()
	off := image.Pt((db.Dx()-sb.Dx())/2, (db.Dy()-sb.Dy())/2)
	r := image.Rectangle{Min: off, Max: off.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
	return r
}
