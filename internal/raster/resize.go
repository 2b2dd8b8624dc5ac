package raster

import (
	"image"
	"math"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// PreviewMaxSide is the longest side of low-latency preview buffers.
const PreviewMaxSide = 800

// FitWithin returns the largest size with the same aspect ratio as w x h
// that fits inside maxW x maxH. Sizes already inside are returned unchanged;
// the result is never upscaled. Dimensions are floored and at least 1.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(math.Floor(float64(w)*ratio))), max(1, int(math.Floor(float64(h)*ratio)))
}

// ScaleToFit returns w x h scaled by min(maxW/w, maxH/h), upscaling when the
// source is smaller than the target box.
func ScaleToFit(w, h, maxW, maxH int) (int, int) {
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(math.Floor(float64(w)*ratio))), max(1, int(math.Floor(float64(h)*ratio)))
}

// PreviewSize returns the size of the preview variant of a w x h image.
func PreviewSize(w, h int) (int, int) {
	return FitWithin(w, h, PreviewMaxSide, PreviewMaxSide)
}

// Resize scales img to exactly width x height. Downscaling uses a Lanczos3
// filter, upscaling uses Catmull-Rom.
func Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return Clone(img), nil
	}

	if width <= b.Dx() && height <= b.Dy() {
		return ToNRGBA(resize.Resize(uint(width), uint(height), img, resize.Lanczos3)), nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

// Preview returns img downscaled to at most PreviewMaxSide on its longest side.
func Preview(img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := PreviewSize(b.Dx(), b.Dy())
	return Resize(img, w, h)
}
