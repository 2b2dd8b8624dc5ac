package filter

import (
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

// AdjustSettings are the seven manual sliders. The zero value is the
// identity.
type AdjustSettings struct {
	Brightness int `json:"brightness" mapstructure:"brightness"`
	Contrast   int `json:"contrast" mapstructure:"contrast"`
	Saturation int `json:"saturation" mapstructure:"saturation"`
	Hue        int `json:"hue" mapstructure:"hue"`
	Warmth     int `json:"warmth" mapstructure:"warmth"`
	Shadows    int `json:"shadows" mapstructure:"shadows"`
	Highlights int `json:"highlights" mapstructure:"highlights"`
}

// IsZero reports whether every slider is at its neutral position.
func (s AdjustSettings) IsZero() bool {
	return s == AdjustSettings{}
}

// Validate checks every slider against its range.
func (s AdjustSettings) Validate() error {
	check := func(name string, v, limit int) error {
		if v < -limit || v > limit {
			return fmt.Errorf("%s %d out of range [-%d, %d]", name, v, limit, limit)
		}
		return nil
	}
	for _, c := range []struct {
		name  string
		v     int
		limit int
	}{
		{"brightness", s.Brightness, 100},
		{"contrast", s.Contrast, 100},
		{"saturation", s.Saturation, 100},
		{"hue", s.Hue, 180},
		{"warmth", s.Warmth, 100},
		{"shadows", s.Shadows, 100},
		{"highlights", s.Highlights, 100},
	} {
		if err := check(c.name, c.v, c.limit); err != nil {
			return err
		}
	}
	return nil
}

// AdjustPresetNames lists the named slider presets in display order.
var AdjustPresetNames = []string{"vivid", "soft", "dramatic", "warm", "cool", "cinematic", "bright", "moody"}

var adjustPresets = map[string]AdjustSettings{
	"vivid":     {Brightness: 10, Contrast: 20, Saturation: 30, Warmth: 5, Shadows: -10, Highlights: 10},
	"soft":      {Brightness: 15, Contrast: -10, Saturation: -15, Warmth: 10, Shadows: 15, Highlights: 5},
	"dramatic":  {Brightness: -10, Contrast: 40, Saturation: 10, Warmth: -5, Shadows: -30, Highlights: -20},
	"warm":      {Brightness: 10, Contrast: 10, Saturation: 15, Hue: 5, Warmth: 30, Highlights: 5},
	"cool":      {Brightness: 10, Contrast: 10, Saturation: 15, Hue: -5, Warmth: -30, Highlights: 5},
	"cinematic": {Brightness: -5, Contrast: 25, Saturation: -10, Warmth: 10, Shadows: -20, Highlights: -10},
	"bright":    {Brightness: 30, Contrast: 15, Saturation: 20, Warmth: 5, Shadows: 20, Highlights: 25},
	"moody":     {Brightness: -20, Contrast: 30, Saturation: -25, Warmth: -10, Shadows: -40, Highlights: -30},
}

// AdjustPreset returns the named slider preset.
func AdjustPreset(name string) (AdjustSettings, bool) {
	s, ok := adjustPresets[name]
	return s, ok
}

func warmth(r, g, b, w float64) (float64, float64, float64) {
	t := w / 100
	if t > 0 {
		return r + 15*t, g + 5*t, b - 12*t
	}
	return r + 10*t, g, b - 15*t
}

func toneCurve(r, g, b, shadows, highlights float64) (float64, float64, float64) {
	lum := colorspace.Luminance(r, g, b)
	var d float64
	if shadows != 0 && lum < 128 {
		d = math.Pow((128-lum)/128, 1.5) * shadows / 100 * 40
	}
	if highlights != 0 && lum > 128 {
		d = math.Pow((lum-128)/128, 1.5) * highlights / 100 * 40
	}
	return r + d, g + d, b + d
}

func hueShift(r, g, b, deg float64) (float64, float64, float64) {
	h, s, l := colorspace.RGBToHSLF(r, g, b)
	h = math.Mod(h+deg/360, 1)
	if h < 0 {
		h++
	}
	nr, ng, nb := colorspace.HSLToRGB(h, s, l)
	return float64(nr), float64(ng), float64(nb)
}

func saturate(r, g, b, m float64) (float64, float64, float64) {
	gray := colorspace.Luminance(r, g, b)
	return gray + m*(r-gray), gray + m*(g-gray), gray + m*(b-gray)
}

func clamp3(r, g, b float64) (float64, float64, float64) {
	return colorspace.ClampF(r), colorspace.ClampF(g), colorspace.ClampF(b)
}

// ApplyAdjust runs the manual adjustment routine over img in place:
// brightness, contrast, saturation, hue, warmth, shadows, highlights, with a
// clamp after every step. Zero settings return immediately.
func ApplyAdjust(img *image.NRGBA, s AdjustSettings) {
	if s.IsZero() {
		return
	}

	bright := float64(s.Brightness) / 100 * 255
	cf := colorspace.ContrastFactor(float64(s.Contrast))
	sat := 1 + float64(s.Saturation)/100

	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r, g, b := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])

			if s.Brightness != 0 {
				r, g, b = clamp3(r+bright, g+bright, b+bright)
			}
			if s.Contrast != 0 {
				r, g, b = clamp3(cf*(r-128)+128, cf*(g-128)+128, cf*(b-128)+128)
			}
			if s.Saturation != 0 {
				r, g, b = clamp3(saturate(r, g, b, sat))
			}
			if s.Hue != 0 {
				r, g, b = hueShift(r, g, b, float64(s.Hue))
			}
			if s.Warmth != 0 {
				r, g, b = clamp3(warmth(r, g, b, float64(s.Warmth)))
			}
			if s.Shadows != 0 {
				r, g, b = clamp3(toneCurve(r, g, b, float64(s.Shadows), 0))
			}
			if s.Highlights != 0 {
				r, g, b = clamp3(toneCurve(r, g, b, 0, float64(s.Highlights)))
			}

			img.Pix[i] = colorspace.Clamp(r)
			img.Pix[i+1] = colorspace.Clamp(g)
			img.Pix[i+2] = colorspace.Clamp(b)
		}
	}
}
