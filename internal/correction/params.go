package correction

import (
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

// Params are the per-image correction parameters derived from an Analysis.
type Params struct {
	RGain      float64 `json:"r_gain"`
	GGain      float64 `json:"g_gain"`
	BGain      float64 `json:"b_gain"`
	Exposure   float64 `json:"exposure"`
	Shadows    float64 `json:"shadows"`
	Saturation float64 `json:"saturation"`
	Contrast   float64 `json:"contrast"`
}

// Magnitude sums the absolute deviation of every parameter from identity.
func (p Params) Magnitude() float64 {
	return math.Abs(p.RGain-1) + math.Abs(p.GGain-1) + math.Abs(p.BGain-1) +
		math.Abs(p.Exposure) + p.Shadows + math.Abs(p.Saturation) + p.Contrast
}

const (
	gainCeiling  = 1.8
	gainDamping  = 0.3
	minGain      = 0.7
	maxGain      = 1.3
	maxExposure  = 0.4
	maxShadows   = 0.35
	minSatAdjust = -0.15
	maxSatAdjust = 0.7
	maxContrast  = 0.5
)

type modeProfile struct {
	// white balance bias
	rBias, bBias float64
	// exposure
	targetLum, exposureDivisor float64
	// saturation
	targetSat, satMultiplier float64
	// contrast
	contrastFloor, contrastTarget, contrastDivisor float64
}

var profiles = map[Mode]modeProfile{
	ModeNight: {
		rBias: 1.05, bBias: 0.95,
		targetLum: 85, exposureDivisor: 200,
		targetSat: 0.4, satMultiplier: 1.1,
		contrastFloor: 130, contrastTarget: 190, contrastDivisor: 220,
	},
	ModePortrait: {
		rBias: 1, bBias: 1,
		targetLum: 120, exposureDivisor: 250,
		targetSat: 0.35, satMultiplier: 1.0,
		contrastFloor: 140, contrastTarget: 180, contrastDivisor: 250,
	},
	ModeLandscape: {
		rBias: 0.98, bBias: 1.02,
		targetLum: 115, exposureDivisor: 220,
		targetSat: 0.55, satMultiplier: 1.3,
		contrastFloor: 160, contrastTarget: 220, contrastDivisor: 180,
	},
	ModeIndoor: {
		rBias: 1.03, bBias: 0.97,
		targetLum: 125, exposureDivisor: 240,
		targetSat: 0.5, satMultiplier: 1.2,
		contrastFloor: 140, contrastTarget: 200, contrastDivisor: 200,
	},
	ModeBalanced: {
		rBias: 1, bBias: 1,
		targetLum: 110, exposureDivisor: 180,
		targetSat: 0.45, satMultiplier: 1.2,
		contrastFloor: 140, contrastTarget: 200, contrastDivisor: 200,
	},
}

func profileFor(m Mode) modeProfile {
	if p, ok := profiles[m]; ok {
		return p
	}
	return profiles[ModeBalanced]
}

// ComputeParams derives correction parameters for img from its analysis.
func ComputeParams(img *image.NRGBA, a Analysis) Params {
	p := Params{}
	p.RGain, p.GGain, p.BGain = WhiteBalance(img, a.Mode)
	p.Exposure, p.Shadows = Exposure(a)
	p.Saturation = Saturation(a)
	p.Contrast = Contrast(a)
	return p
}

// includeForBalance reports whether a pixel contributes to the gray-world
// averages for the given mode.
func includeForBalance(mode Mode, r, g, b uint8) bool {
	switch mode {
	case ModePortrait:
		h, s, _ := colorspace.RGBToHSL(r, g, b)
		return !(h > 0.05 && h < 0.15 && s > 0.15)
	case ModeLandscape:
		return colorspace.Luminance(float64(r), float64(g), float64(b)) <= 220
	case ModeNight:
		return colorspace.Luminance(float64(r), float64(g), float64(b)) >= 30
	}
	return true
}

// WhiteBalance computes gray-world channel gains over the pixels the mode
// keeps, applies the mode's warm/cool bias, scales the set down when the
// largest gain exceeds the 1.8 ceiling, and damps the result to 30% of
// its deviation from 1 within [0.7, 1.3]. A neutral image yields unity gains.
func WhiteBalance(img *image.NRGBA, mode Mode) (rGain, gGain, bGain float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	sum := func(filter bool) (sr, sg, sb float64, n int) {
		for y := 0; y < h; y++ {
			row := y * img.Stride
			for x := 0; x < w; x++ {
				i := row + x*4
				r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
				if filter && !includeForBalance(mode, r, g, b) {
					continue
				}
				sr += float64(r)
				sg += float64(g)
				sb += float64(b)
				n++
			}
		}
		return
	}

	sr, sg, sb, n := sum(true)
	if n == 0 {
		sr, sg, sb, n = sum(false)
	}
	if n == 0 {
		return 1, 1, 1
	}

	avgR, avgG, avgB := sr/float64(n), sg/float64(n), sb/float64(n)
	gray := (avgR + avgG + avgB) / 3

	gain := func(avg float64) float64 {
		if avg == 0 {
			avg = 1
		}
		return gray / avg
	}

	prof := profileFor(mode)
	rGain = gain(avgR) * prof.rBias
	gGain = gain(avgG)
	bGain = gain(avgB) * prof.bBias

	if top := math.Max(rGain, math.Max(gGain, bGain)); top > gainCeiling {
		scale := gainCeiling / top
		rGain *= scale
		gGain *= scale
		bGain *= scale
	}

	damp := func(g float64) float64 {
		return math.Max(minGain, math.Min(maxGain, 1+(g-1)*gainDamping))
	}
	return damp(rGain), damp(gGain), damp(bGain)
}

// Exposure returns the exposure multiplier offset and shadow lift strength.
func Exposure(a Analysis) (exposure, shadows float64) {
	prof := profileFor(a.Mode)
	exposure = (prof.targetLum - a.AvgLuminance) / prof.exposureDivisor

	switch a.Mode {
	case ModeNight:
		shadows = math.Min(0.35, (80-a.AvgLuminance)/100)
	case ModePortrait:
		if a.AvgLuminance < 110 {
			shadows = 0.15
		}
	case ModeLandscape:
		if a.Contrast < 150 {
			shadows = 0.2
		} else {
			shadows = 0.1
		}
	case ModeIndoor:
		shadows = 0.1
	default:
		if a.AvgLuminance < 90 {
			shadows = 0.2
		}
	}

	exposure = math.Max(-maxExposure, math.Min(maxExposure, exposure))
	shadows = math.Max(0, math.Min(maxShadows, shadows))
	return exposure, shadows
}

// Saturation returns the saturation offset applied as a (1+s) chroma factor.
func Saturation(a Analysis) float64 {
	prof := profileFor(a.Mode)
	adj := (prof.targetSat - a.Saturation) * prof.satMultiplier
	if a.Mode == ModePortrait && a.SkinToneRatio > 0.1 {
		adj *= 1 - a.SkinToneRatio*0.5
	}
	return math.Max(minSatAdjust, math.Min(maxSatAdjust, adj))
}

// Contrast returns the contrast stretch amount. Only images whose luminance
// range is below the mode's floor get a stretch.
func Contrast(a Analysis) float64 {
	prof := profileFor(a.Mode)
	adj := 0.0
	if a.Contrast < prof.contrastFloor {
		adj = (prof.contrastTarget - a.Contrast) / prof.contrastDivisor
	}
	return math.Max(0, math.Min(maxContrast, adj))
}
