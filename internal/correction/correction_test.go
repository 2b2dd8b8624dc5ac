package correction

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// greenRamp has a slight green cast and luminance spanning roughly 45..205.
func greenRamp() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 161, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 161; x++ {
			v := uint8(40 + x)
			img.SetNRGBA(x, y, color.NRGBA{v, v + 10, v, 255})
		}
	}
	return img
}

func TestAnalyzeClassifiesScenes(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want Mode
	}{
		{"dark flat is night", color.NRGBA{20, 20, 30, 255}, ModeNight},
		{"skin tones are portrait", color.NRGBA{220, 170, 130, 255}, ModePortrait},
		{"blue sky is landscape", color.NRGBA{100, 150, 230, 255}, ModeLandscape},
		{"warm mid tones are indoor", color.NRGBA{180, 60, 50, 255}, ModeIndoor},
		{"green is balanced", color.NRGBA{60, 160, 60, 255}, ModeBalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(uniform(40, 40, tt.c))
			assert.Equal(t, tt.want, a.Mode)
		})
	}
}

func TestAnalyzeStatistics(t *testing.T) {
	a := Analyze(greenRamp())
	assert.Equal(t, ModeBalanced, a.Mode)
	assert.InDelta(t, 160, a.Contrast, 1)
	assert.InDelta(t, 125, a.AvgLuminance, 0.5)
	assert.Zero(t, a.BlueRatio)
	assert.Zero(t, a.WarmRatio)
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Equal(t, ModeBalanced, a.Mode)
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		a    Analysis
		want Mode
	}{
		{
			name: "night wins over portrait",
			a:    Analysis{AvgLuminance: 40, Contrast: 50, SkinToneRatio: 0.5},
			want: ModeNight,
		},
		{
			name: "dark but contrasty is not night",
			a:    Analysis{AvgLuminance: 40, Contrast: 200},
			want: ModeBalanced,
		},
		{
			name: "portrait wins over landscape",
			a:    Analysis{AvgLuminance: 120, Contrast: 200, SkinToneRatio: 0.2, SkyRatio: 0.9, BlueRatio: 0.9},
			want: ModePortrait,
		},
		{
			name: "landscape wins over indoor",
			a:    Analysis{AvgLuminance: 120, Contrast: 200, SkyRatio: 0.5, BlueRatio: 0.3, WarmRatio: 0.5},
			want: ModeLandscape,
		},
		{
			name: "indoor needs mid luminance",
			a:    Analysis{AvgLuminance: 160, Contrast: 200, WarmRatio: 0.5},
			want: ModeBalanced,
		},
		{
			name: "indoor",
			a:    Analysis{AvgLuminance: 100, Contrast: 200, WarmRatio: 0.5},
			want: ModeIndoor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.a))
		})
	}
}

func TestWhiteBalanceNeutralIsIdentity(t *testing.T) {
	img := uniform(10, 10, color.NRGBA{128, 128, 128, 255})
	for _, m := range []Mode{ModeBalanced, ModePortrait} {
		r, g, b := WhiteBalance(img, m)
		assert.InDelta(t, 1, r, 1e-9, "mode %s", m)
		assert.InDelta(t, 1, g, 1e-9, "mode %s", m)
		assert.InDelta(t, 1, b, 1e-9, "mode %s", m)
	}
}

func TestWhiteBalanceCountersCast(t *testing.T) {
	r, g, b := WhiteBalance(uniform(10, 10, color.NRGBA{150, 120, 100, 255}), ModeBalanced)
	assert.Less(t, r, 1.0)
	assert.Greater(t, b, 1.0)
	for _, v := range []float64{r, g, b} {
		assert.GreaterOrEqual(t, v, 0.7)
		assert.LessOrEqual(t, v, 1.3)
	}
}

func TestWhiteBalanceFallsBackWhenAllExcluded(t *testing.T) {
	// Every pixel is below the night luminance floor.
	r, g, b := WhiteBalance(uniform(10, 10, color.NRGBA{10, 20, 30, 255}), ModeNight)
	assert.Greater(t, r, 1.0)
	assert.Less(t, b, 1.0)
	assert.LessOrEqual(t, r, 1.3)
	assert.Less(t, g, 1.0)
}

func TestExposure(t *testing.T) {
	tests := []struct {
		name             string
		a                Analysis
		exposure, shadow float64
	}{
		{"balanced dark", Analysis{Mode: ModeBalanced, AvgLuminance: 50}, 60.0 / 180, 0.2},
		{"balanced black clamps", Analysis{Mode: ModeBalanced, AvgLuminance: 0}, 0.4, 0.2},
		{"balanced bright", Analysis{Mode: ModeBalanced, AvgLuminance: 200}, -0.4, 0},
		{"night", Analysis{Mode: ModeNight, AvgLuminance: 20}, 65.0 / 200, 0.35},
		{"night above shadow floor", Analysis{Mode: ModeNight, AvgLuminance: 90}, -5.0 / 200, 0},
		{"portrait", Analysis{Mode: ModePortrait, AvgLuminance: 100}, 20.0 / 250, 0.15},
		{"landscape flat", Analysis{Mode: ModeLandscape, AvgLuminance: 115, Contrast: 100}, 0, 0.2},
		{"landscape contrasty", Analysis{Mode: ModeLandscape, AvgLuminance: 115, Contrast: 200}, 0, 0.1},
		{"indoor", Analysis{Mode: ModeIndoor, AvgLuminance: 125}, 0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := Exposure(tt.a)
			assert.InDelta(t, tt.exposure, e, 1e-9)
			assert.InDelta(t, tt.shadow, s, 1e-9)
		})
	}
}

func TestSaturationAndContrast(t *testing.T) {
	assert.InDelta(t, 0.54, Saturation(Analysis{Mode: ModeBalanced}), 1e-9)
	assert.InDelta(t, -0.15, Saturation(Analysis{Mode: ModeBalanced, Saturation: 1}), 1e-9)
	assert.InDelta(t, 0.12, Saturation(Analysis{Mode: ModePortrait, Saturation: 0.2, SkinToneRatio: 0.4}), 1e-9)

	assert.InDelta(t, 0.5, Contrast(Analysis{Mode: ModeBalanced, Contrast: 100}), 1e-9)
	assert.Zero(t, Contrast(Analysis{Mode: ModeBalanced, Contrast: 150}))
	assert.InDelta(t, 70.0/180, Contrast(Analysis{Mode: ModeLandscape, Contrast: 150}), 1e-9)
}

func TestApplyIdentity(t *testing.T) {
	img := greenRamp()
	orig := append([]uint8(nil), img.Pix...)
	Apply(img, Params{RGain: 1, GGain: 1, BGain: 1})
	assert.Equal(t, orig, img.Pix)
}

func TestApplyPreservesAlpha(t *testing.T) {
	img := uniform(4, 4, color.NRGBA{90, 80, 70, 77})
	Apply(img, Params{RGain: 1.2, GGain: 1, BGain: 0.8, Exposure: 0.2, Shadows: 0.3, Saturation: 0.5, Contrast: 0.3})
	for i := 3; i < len(img.Pix); i += 4 {
		require.Equal(t, uint8(77), img.Pix[i])
	}
}

func TestApplyShadowLiftOnlyDarkPixels(t *testing.T) {
	img := uniform(2, 1, color.NRGBA{20, 20, 20, 255})
	img.SetNRGBA(1, 0, color.NRGBA{200, 200, 200, 255})
	Apply(img, Params{RGain: 1, GGain: 1, BGain: 1, Shadows: 0.35})

	lift := 0.35 * math.Pow(0.8, 1.2) * 40
	assert.Equal(t, uint8(math.Round(20+lift)), img.Pix[0])
	assert.Equal(t, uint8(200), img.Pix[4])
}

func TestCorrectDoesNotMutateInput(t *testing.T) {
	img := greenRamp()
	orig := append([]uint8(nil), img.Pix...)
	res := Correct(img)
	assert.Equal(t, orig, img.Pix)
	assert.Equal(t, img.Bounds(), res.Image.Bounds())
	assert.NotEqual(t, orig, res.Image.Pix)
}

func TestCorrectionConverges(t *testing.T) {
	first := Correct(greenRamp())
	second := Correct(first.Image)

	require.Equal(t, first.Analysis.Mode, second.Analysis.Mode)
	assert.Less(t, math.Abs(second.Params.Exposure), math.Abs(first.Params.Exposure))
	assert.Less(t, second.Params.Saturation, first.Params.Saturation)
	assert.Zero(t, second.Params.Contrast)
}
