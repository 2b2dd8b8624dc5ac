// Package sharpen implements the soft unsharp mask and the fixed-canvas 4K
// enhancement path.
package sharpen

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
	"github.com/MeKo-Tech/photocore/internal/raster"
)

const (
	// TargetWidth and TargetHeight are the enhancement canvas size.
	TargetWidth  = 3840
	TargetHeight = 2160

	// NoiseFloor is the per-channel difference below which pixels are left alone.
	NoiseFloor = 5

	FullAmount    = 0.6
	PreviewAmount = 0.5

	FullQuality    = 95
	PreviewQuality = 92
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	blurKernel = []float32{
		0.0625, 0.125, 0.0625,
		0.125, 0.25, 0.125,
		0.0625, 0.125, 0.0625,
	}
)

// GaussianBlur3 returns a 3x3 Gaussian blurred copy of img. Only interior
// pixels are blurred; the one-pixel frame and every alpha value are copied
// from the source.
func GaussianBlur3(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	g := gift.New(gift.Convolution(blurKernel, false, false, false, 0))
	g.Draw(dst, img)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := y*img.Stride + x*4
			di := y*dst.Stride + x*4
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				copy(dst.Pix[di:di+4], img.Pix[si:si+4])
				continue
			}
			dst.Pix[di+3] = img.Pix[si+3]
		}
	}
	return dst
}

// SoftUnsharpMask sharpens img in place. For every RGB channel whose
// difference to the blurred image exceeds NoiseFloor the value becomes
// original + diff*amount.
func SoftUnsharpMask(img *image.NRGBA, amount float64) {
	if amount <= 0 {
		return
	}
	blurred := GaussianBlur3(img)

	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		brow := y * blurred.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			j := brow + x*4
			for c := 0; c < 3; c++ {
				orig := float64(img.Pix[i+c])
				diff := orig - float64(blurred.Pix[j+c])
				if diff > NoiseFloor || diff < -NoiseFloor {
					img.Pix[i+c] = colorspace.Clamp(orig + diff*amount)
				}
			}
		}
	}
}

// Letterbox scales img by min(width/w, height/h) and centers it on a
// width x height canvas filled with bg.
func Letterbox(img image.Image, width, height int, bg color.NRGBA) (*image.NRGBA, error) {
	canvas, err := raster.NewFilled(width, height, bg)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if err := raster.CheckSize(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	sw, sh := raster.ScaleToFit(b.Dx(), b.Dy(), width, height)
	scaled, err := raster.Resize(img, sw, sh)
	if err != nil {
		return nil, fmt.Errorf("failed to scale image: %w", err)
	}
	raster.DrawCentered(canvas, scaled)
	return canvas, nil
}

// Upscale4K places img on a black 3840x2160 canvas and sharpens the result.
func Upscale4K(img image.Image) (*image.NRGBA, error) {
	canvas, err := Letterbox(img, TargetWidth, TargetHeight, black)
	if err != nil {
		return nil, err
	}
	SoftUnsharpMask(canvas, FullAmount)
	return canvas, nil
}

// Enhance runs Upscale4K and encodes the canvas as JPEG.
func Enhance(img image.Image) (raster.Encoded, error) {
	canvas, err := Upscale4K(img)
	if err != nil {
		return raster.Encoded{}, err
	}
	return raster.Encode(canvas, raster.JPEG, FullQuality)
}

// PreviewImage downsizes img to the preview size over a white background
// and applies the lighter unsharp mask.
func PreviewImage(img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := raster.PreviewSize(b.Dx(), b.Dy())
	canvas, err := raster.NewFilled(w, h, white)
	if err != nil {
		return nil, err
	}
	scaled, err := raster.Resize(img, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to scale preview: %w", err)
	}
	raster.DrawCentered(canvas, scaled)
	SoftUnsharpMask(canvas, PreviewAmount)
	return canvas, nil
}

// Preview runs PreviewImage and encodes the result as JPEG.
func Preview(img image.Image) (raster.Encoded, error) {
	canvas, err := PreviewImage(img)
	if err != nil {
		return raster.Encoded{}, err
	}
	return raster.Encode(canvas, raster.JPEG, PreviewQuality)
}
