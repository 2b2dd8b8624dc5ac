package mask

import (
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

// EdgeBoost scales the Sobel magnitude so that soft photographic edges
// still register against the segmentation threshold.
const EdgeBoost = 2.5

var gaussian3 = [9]float64{1, 2, 1, 2, 4, 2, 1, 2, 1}

var (
	sobelX = [9]float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	sobelY = [9]float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}
)

// DetectEdges returns a gradient magnitude map of img.
// RGB is smoothed with a 3x3 Gaussian, converted to luma, and run through
// Sobel. Magnitudes are boosted by EdgeBoost and clamped to 255. The outer
// one-pixel frame has no full 3x3 window and stays 0.
func DetectEdges(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	edges := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return edges
	}

	gray := blurredLuma(img, w, h)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * w
				for kx := -1; kx <= 1; kx++ {
					v := gray[row+x+kx]
					k := (ky+1)*3 + (kx + 1)
					gx += v * sobelX[k]
					gy += v * sobelY[k]
				}
			}
			mag := math.Sqrt(gx*gx+gy*gy) * EdgeBoost
			if mag > 255 {
				mag = 255
			}
			edges.Pix[y*edges.Stride+x] = uint8(mag)
		}
	}

	return edges
}

// blurredLuma smooths RGB with the 3x3 Gaussian and returns per-pixel luma.
// Frame pixels keep their unblurred value.
func blurredLuma(img *image.NRGBA, w, h int) []float64 {
	pix := img.Pix
	stride := img.Stride
	gray := make([]float64, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl float64
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				i := y*stride + x*4
				r, g, bl = float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
			} else {
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						i := (y+ky)*stride + (x+kx)*4
						k := gaussian3[(ky+1)*3+(kx+1)]
						r += float64(pix[i]) * k
						g += float64(pix[i+1]) * k
						bl += float64(pix[i+2]) * k
					}
				}
				r = float64(colorspace.Clamp(r / 16))
				g = float64(colorspace.Clamp(g / 16))
				bl = float64(colorspace.Clamp(bl / 16))
			}
			gray[y*w+x] = colorspace.Luminance(r, g, bl)
		}
	}

	return gray
}
