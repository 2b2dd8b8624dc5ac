package mask

import (
	"image"

	"github.com/disintegration/gift"
)

// RemoveOptions configures RemoveBackground.
type RemoveOptions struct {
	// Tolerance scales color thresholds (default DefaultTolerance).
	Tolerance float64
	// Feather softens the cut-out edge over this many pixels inward
	// (0 = hard edge).
	Feather float64
}

// RemoveBackground segments img and returns a copy whose background pixels
// have alpha 0, plus the mask that produced it. Without feathering the
// foreground is untouched.
func RemoveBackground(img *image.NRGBA, opts RemoveOptions) (*image.NRGBA, *Mask) {
	m := Segment(img, opts.Tolerance)

	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	copyPix(out, img)

	if opts.Feather > 0 {
		ApplyMatte(out, m, Matte(m, opts.Feather))
	} else {
		Apply(out, m)
	}
	return out, m
}

// Apply zeroes the alpha of every background pixel of img in place.
func Apply(img *image.NRGBA, m *Mask) {
	for y := 0; y < m.Height; y++ {
		row := y * img.Stride
		for x := 0; x < m.Width; x++ {
			if !m.Pix[y*m.Width+x] {
				img.Pix[row+x*4+3] = 0
			}
		}
	}
}

// Matte renders m as a soft alpha matte: 0 on the background, ramping to
// 255 over radius pixels into the foreground, then smoothed with a
// Gaussian of sigma radius/4.
func Matte(m *Mask, radius float64) *image.Gray {
	if radius <= 0 {
		g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
		for i, fg := range m.Pix {
			if fg {
				g.Pix[i] = 255
			}
		}
		return g
	}

	return SmoothGray(DistanceImage(m, radius), float32(radius/4))
}

// ApplyMatte scales the alpha of img by matte in place. Background pixels
// of m end at alpha 0 whatever the matte says.
func ApplyMatte(img *image.NRGBA, m *Mask, matte *image.Gray) {
	for y := 0; y < m.Height; y++ {
		row := y * img.Stride
		for x := 0; x < m.Width; x++ {
			idx := y*m.Width + x
			ai := row + x*4 + 3
			if !m.Pix[idx] {
				img.Pix[ai] = 0
				continue
			}
			a := matte.Pix[y*matte.Stride+x]
			if a == 255 {
				continue
			}
			img.Pix[ai] = uint8((int(img.Pix[ai])*int(a) + 127) / 255)
		}
	}
}

// SmoothGray blurs g with a Gaussian of the given sigma.
func SmoothGray(g *image.Gray, sigma float32) *image.Gray {
	if sigma <= 0 {
		return g
	}
	f := gift.New(gift.GaussianBlur(sigma))
	dst := image.NewGray(f.Bounds(g.Bounds()))
	f.Draw(dst, g)
	return dst
}

func copyPix(dst, src *image.NRGBA) {
	w := dst.Rect.Dx() * 4
	for y := 0; y < dst.Rect.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
	}
}
