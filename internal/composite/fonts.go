package composite

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

type fontKey struct {
	family string
	bold   bool
}

var (
	fontsOnce sync.Once
	fonts     map[fontKey]*opentype.Font
	fontsErr  error
)

func loadFonts() {
	sources := map[fontKey][]byte{
		{"sans", false}:      goregular.TTF,
		{"sans", true}:       gobold.TTF,
		{"mono", false}:      gomono.TTF,
		{"mono", true}:       gomonobold.TTF,
		{"smallcaps", false}: gosmallcaps.TTF,
		{"smallcaps", true}:  gosmallcaps.TTF,
	}
	fonts = make(map[fontKey]*opentype.Font, len(sources))
	for k, data := range sources {
		f, err := opentype.Parse(data)
		if err != nil {
			fontsErr = fmt.Errorf("failed to parse %s font: %w", k.family, err)
			return
		}
		fonts[k] = f
	}
}

// familyFor maps a CSS font family onto one of the bundled Go fonts.
func familyFor(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "mono"), strings.Contains(n, "courier"), strings.Contains(n, "code"):
		return "mono"
	case strings.Contains(n, "smallcaps"), strings.Contains(n, "small caps"):
		return "smallcaps"
	}
	return "sans"
}

// Face returns a new font face for the family at size pixels. Faces are not
// safe for concurrent use; callers create one per drawing.
func Face(family string, bold bool, size float64) (font.Face, error) {
	fontsOnce.Do(loadFonts)
	if fontsErr != nil {
		return nil, fontsErr
	}
	f := fonts[fontKey{familyFor(family), bold}]
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
