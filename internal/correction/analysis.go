// Package correction implements automatic, scene-aware color correction:
// a single statistics pass classifies the image into a Mode, then
// mode-specific white balance, exposure, shadow lift, contrast and
// saturation adjustments are computed and applied per pixel.
package correction

import (
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

// Mode is the scene category that drives correction parameters.
type Mode string

const (
	ModePortrait  Mode = "portrait"
	ModeLandscape Mode = "landscape"
	ModeNight     Mode = "night"
	ModeIndoor    Mode = "indoor"
	ModeBalanced  Mode = "balanced"
)

// Modes lists every mode in classification priority order.
var Modes = []Mode{ModeNight, ModePortrait, ModeLandscape, ModeIndoor, ModeBalanced}

// Description returns a short human readable explanation of the mode.
func (m Mode) Description() string {
	switch m {
	case ModePortrait:
		return "Portrait - natural look that protects skin tones"
	case ModeLandscape:
		return "Landscape - livelier sky and nature colors"
	case ModeNight:
		return "Night - optimized for low light"
	case ModeIndoor:
		return "Indoor - warm tones and soft light"
	default:
		return "Balanced - general purpose automatic correction"
	}
}

// Analysis holds the statistics gathered from one pass over an image.
type Analysis struct {
	Mode          Mode    `json:"mode"`
	AvgLuminance  float64 `json:"avg_luminance"`
	Contrast      float64 `json:"contrast"`
	Saturation    float64 `json:"saturation"`
	SkinToneRatio float64 `json:"skin_tone_ratio"`
	SkyRatio      float64 `json:"sky_ratio"`
	BlueRatio     float64 `json:"blue_ratio"`
	WarmRatio     float64 `json:"warm_ratio"`
}

const skyRegionFactor = 0.3

func isSkinTone(h, s, l float64) bool {
	return h > 0.05 && h < 0.15 && s > 0.15 && s < 0.7 && l > 0.3 && l < 0.9
}

func isBlueHue(h float64) bool {
	return h > 0.5 && h < 0.7
}

func isWarmHue(h float64) bool {
	return h < 0.15 || h > 0.9
}

func isSky(h, s, l float64) bool {
	blue := isBlueHue(h) || (h > 0.4 && h < 0.6 && l > 0.5)
	gray := s < 0.2 && l > 0.4 && l < 0.8
	return blue || gray
}

// Analyze computes luminance, contrast, saturation and hue ratios for img
// and classifies it. Luminance is floored to an integer per pixel before
// it enters the sums. Sky matches are counted only in the top 30% of rows.
func Analyze(img *image.NRGBA) Analysis {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Analysis{Mode: ModeBalanced}
	}

	skyRows := int(math.Floor(float64(h) * skyRegionFactor))

	var (
		totalLum, totalSat                     float64
		minLum, maxLum                         = 255.0, 0.0
		skinCount, skyCount, blue, warm, count int
	)

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r, g, bl := img.Pix[i], img.Pix[i+1], img.Pix[i+2]

			lum := math.Floor(colorspace.Luminance(float64(r), float64(g), float64(bl)))
			totalLum += lum
			minLum = math.Min(minLum, lum)
			maxLum = math.Max(maxLum, lum)

			hue, sat, light := colorspace.RGBToHSL(r, g, bl)
			totalSat += sat

			if isSkinTone(hue, sat, light) {
				skinCount++
			}
			if y < skyRows && isSky(hue, sat, light) {
				skyCount++
			}
			if isBlueHue(hue) {
				blue++
			}
			if isWarmHue(hue) {
				warm++
			}
			count++
		}
	}

	n := float64(count)
	a := Analysis{
		AvgLuminance:  totalLum / n,
		Contrast:      maxLum - minLum,
		Saturation:    totalSat / n,
		SkinToneRatio: float64(skinCount) / n,
		BlueRatio:     float64(blue) / n,
		WarmRatio:     float64(warm) / n,
	}
	if skyRows > 0 {
		a.SkyRatio = float64(skyCount) / float64(skyRows*w)
	}
	a.Mode = Classify(a)
	return a
}

// Classify picks the first matching mode in priority order:
// night > portrait > landscape > indoor > balanced.
func Classify(a Analysis) Mode {
	switch {
	case a.AvgLuminance < 70 && a.Contrast < 120:
		return ModeNight
	case a.SkinToneRatio > 0.15:
		return ModePortrait
	case a.SkyRatio > 0.4 && a.BlueRatio > 0.2:
		return ModeLandscape
	case a.WarmRatio > 0.3 && a.AvgLuminance > 80 && a.AvgLuminance < 150:
		return ModeIndoor
	}
	return ModeBalanced
}
