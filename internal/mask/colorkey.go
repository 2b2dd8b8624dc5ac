package mask

import (
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

const (
	directBandFactor     = 0.12
	directToleranceScale = 2.8
	colorToleranceScale  = 2.55
	colorFadeStrength    = 0.98
	bucketSize           = 10
)

// DominantTopColor samples the top band (12% of the shorter side) and
// returns the most frequent color, quantized into 10-unit buckets. Ties go
// to the bucket seen first. An empty band yields white.
func DominantTopColor(img *image.NRGBA) colorspace.RGB {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	band := int(math.Floor(float64(min(w, h)) * directBandFactor))

	counts := make(map[[3]uint8]int)
	var order [][3]uint8

	for y := 0; y < band; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			key := [3]uint8{img.Pix[i] / bucketSize, img.Pix[i+1] / bucketSize, img.Pix[i+2] / bucketSize}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	var best [3]uint8
	bestCount := 0
	for _, key := range order {
		if counts[key] > bestCount {
			bestCount = counts[key]
			best = key
		}
	}

	if bestCount == 0 {
		return colorspace.RGB{R: 255, G: 255, B: 255}
	}
	return colorspace.RGB{R: best[0] * bucketSize, G: best[1] * bucketSize, B: best[2] * bucketSize}
}

// RemoveDominant makes every pixel within 2.8 x tolerance (Euclidean RGB)
// of the dominant top-band color fully transparent.
func RemoveDominant(img *image.NRGBA, tolerance float64) *image.NRGBA {
	key := DominantTopColor(img)
	threshold := tolerance * directToleranceScale

	out := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	copyPix(out, img)

	forEachPixel(out, func(i int, d float64) {
		if d <= threshold {
			out.Pix[i+3] = 0
		}
	}, key)
	return out
}

// RemoveColor fades out pixels near target: within 2.55 x tolerance the
// alpha becomes 255 x (1 - 0.98 f^2) where f = 1 - distance/threshold.
func RemoveColor(img *image.NRGBA, target colorspace.RGB, tolerance float64) *image.NRGBA {
	threshold := tolerance * colorToleranceScale

	out := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	copyPix(out, img)
	if threshold <= 0 {
		return out
	}

	forEachPixel(out, func(i int, d float64) {
		if d > threshold {
			return
		}
		fade := 1 - d/threshold
		out.Pix[i+3] = uint8(math.Floor(255 * (1 - fade*fade*colorFadeStrength)))
	}, target)
	return out
}

func forEachPixel(img *image.NRGBA, fn func(i int, dist float64), ref colorspace.RGB) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			dr := float64(img.Pix[i]) - float64(ref.R)
			dg := float64(img.Pix[i+1]) - float64(ref.G)
			db := float64(img.Pix[i+2]) - float64(ref.B)
			fn(i, math.Sqrt(dr*dr+dg*dg+db*db))
		}
	}
}
