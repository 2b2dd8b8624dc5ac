package sharpen

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/photocore/internal/raster"
)

func filled(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	raster.Fill(img, c)
	return img
}

func TestGaussianBlur3(t *testing.T) {
	t.Run("uniform is unchanged", func(t *testing.T) {
		img := filled(6, 6, color.NRGBA{100, 150, 200, 255})
		out := GaussianBlur3(img)
		assert.Equal(t, img.Pix, out.Pix)
	})

	t.Run("frame is copied", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
		for i := range img.Pix {
			img.Pix[i] = uint8(i * 37)
		}
		out := GaussianBlur3(img)
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				if x == 0 || y == 0 || x == 4 || y == 4 {
					assert.Equal(t, img.NRGBAAt(x, y), out.NRGBAAt(x, y), "pixel %d,%d", x, y)
				}
				assert.Equal(t, img.NRGBAAt(x, y).A, out.NRGBAAt(x, y).A)
			}
		}
	})

	t.Run("impulse spreads", func(t *testing.T) {
		img := filled(3, 3, color.NRGBA{A: 255})
		img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
		out := GaussianBlur3(img)
		assert.InDelta(t, 64, int(out.NRGBAAt(1, 1).R), 1)
	})
}

func TestSoftUnsharpMask(t *testing.T) {
	t.Run("step edge is enhanced", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				v := uint8(50)
				if x >= 5 {
					v = 200
				}
				img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
			}
		}
		SoftUnsharpMask(img, FullAmount)

		assert.InDelta(t, 28, int(img.NRGBAAt(4, 5).R), 1)
		assert.InDelta(t, 222, int(img.NRGBAAt(5, 5).R), 1)
		assert.Equal(t, uint8(50), img.NRGBAAt(2, 5).R)
		assert.Equal(t, uint8(200), img.NRGBAAt(8, 5).R)
	})

	t.Run("differences under the noise floor are ignored", func(t *testing.T) {
		img := filled(7, 7, color.NRGBA{50, 50, 50, 255})
		img.SetNRGBA(3, 3, color.NRGBA{56, 56, 56, 255})
		before := append([]uint8(nil), img.Pix...)
		SoftUnsharpMask(img, FullAmount)
		assert.Equal(t, before, img.Pix)
	})

	t.Run("zero amount is a no-op", func(t *testing.T) {
		img := filled(4, 4, color.NRGBA{1, 2, 3, 255})
		img.SetNRGBA(1, 1, color.NRGBA{255, 0, 0, 255})
		before := append([]uint8(nil), img.Pix...)
		SoftUnsharpMask(img, 0)
		assert.Equal(t, before, img.Pix)
	})
}

func TestLetterbox(t *testing.T) {
	red := color.NRGBA{200, 20, 20, 255}
	out, err := Letterbox(filled(100, 50, red), 80, 60, black)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 80, 60), out.Bounds())

	assert.Equal(t, black, out.NRGBAAt(40, 5))
	assert.Equal(t, black, out.NRGBAAt(40, 55))
	mid := out.NRGBAAt(40, 30)
	assert.InDelta(t, 200, int(mid.R), 2)
	assert.InDelta(t, 20, int(mid.G), 2)
}

func TestUpscale4KAspect(t *testing.T) {
	src := filled(1000, 500, color.NRGBA{30, 120, 220, 255})
	out, err := Upscale4K(src)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, TargetWidth, TargetHeight), out.Bounds())

	// 1000x500 scales by 3.84 to 3840x1920, leaving 120px bars.
	assert.Equal(t, black, out.NRGBAAt(10, 10))
	assert.Equal(t, black, out.NRGBAAt(1920, 2150))
	c := out.NRGBAAt(1920, 1080)
	assert.InDelta(t, 120, int(c.G), 2)
	assert.InDelta(t, 220, int(c.B), 2)
}

func TestEnhanceRejectsEmptyImage(t *testing.T) {
	_, err := Enhance(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, raster.ErrContextUnavailable)
}

func TestPreview(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1600, 400))

	img, err := PreviewImage(src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 200), img.Bounds())
	assert.Equal(t, white, img.NRGBAAt(400, 100))

	enc, err := Preview(src)
	require.NoError(t, err)
	assert.Equal(t, raster.JPEG, enc.Format)
	decoded, format, err := raster.Decode(enc.Data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())
}
