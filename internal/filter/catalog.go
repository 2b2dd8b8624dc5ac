package filter

import (
	"fmt"
	"sort"
)

// Category groups presets for display.
type Category string

const (
	CategoryBasic     Category = "basic"
	CategoryVintage   Category = "vintage"
	CategoryColor     Category = "color"
	CategoryCinematic Category = "cinematic"
	CategoryArtistic  Category = "artistic"
)

// NoneID is the identity filter.
const NoneID = "none"

// Preset is an immutable named list of operations.
type Preset struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	CSS      string   `json:"css"`
	Ops      []Op     `json:"-"`
}

// IsIdentity reports whether applying p leaves pixels unchanged.
func (p Preset) IsIdentity() bool {
	return p.ID == NoneID || len(p.Ops) == 0
}

type presetDef struct {
	id, name, css string
	category      Category
}

var presetDefs = []presetDef{
	{NoneID, "Original", "none", CategoryBasic},
	{"vintage", "Vintage", "sepia(0.5) contrast(1.1) brightness(1.05)", CategoryVintage},
	{"film", "Film", "contrast(1.15) saturate(0.85) brightness(1.08)", CategoryVintage},
	{"polaroid", "Polaroid", "brightness(1.1) contrast(1.05) saturate(0.95)", CategoryVintage},
	{"blackwhite", "Black & White", "grayscale(1)", CategoryBasic},
	{"dramatic_bw", "Dramatic B&W", "grayscale(1) contrast(1.3) brightness(0.95)", CategoryArtistic},
	{"warm", "Warm", "brightness(1.05) contrast(1.05) saturate(1.1)", CategoryColor},
	{"cool", "Cool", "brightness(1.05) contrast(1.05) saturate(0.9) hue-rotate(5deg)", CategoryColor},
	{"dramatic", "Dramatic", "contrast(1.25) brightness(0.95) saturate(1.15)", CategoryCinematic},
	{"soft", "Soft", "brightness(1.1) contrast(0.9) saturate(0.9)", CategoryColor},
	{"vibrant", "Vibrant", "saturate(1.3) contrast(1.1) brightness(1.03)", CategoryColor},
	{"faded", "Faded", "brightness(1.15) contrast(0.85) saturate(0.7)", CategoryArtistic},
	{"cinematic", "Cinematic", "contrast(1.2) brightness(0.9) saturate(1.05)", CategoryCinematic},
	{"noir", "Noir", "grayscale(1) contrast(1.3) brightness(0.9)", CategoryCinematic},
	{"moody", "Moody", "brightness(0.9) contrast(1.15) saturate(0.85) hue-rotate(-5deg)", CategoryCinematic},
	{"pastel", "Pastel", "brightness(1.15) contrast(0.85) saturate(0.7)", CategoryArtistic},
	{"highcontrast", "High Contrast", "contrast(1.4) brightness(1.05)", CategoryArtistic},
	{"sunset", "Sunset", "brightness(1.08) contrast(1.1) saturate(1.2) hue-rotate(-3deg)", CategoryColor},
	{"bluehour", "Blue Hour", "brightness(0.97) contrast(1.12) saturate(1.1) hue-rotate(8deg)", CategoryColor},
	{"morning", "Morning", "brightness(1.12) contrast(1.05) saturate(1.08) hue-rotate(-2deg)", CategoryColor},
	{"evening", "Evening", "brightness(0.98) contrast(1.12) saturate(1.15) hue-rotate(5deg)", CategoryColor},
	{"ludwig", "Ludwig", "brightness(1.1) contrast(1.1) saturate(1.1)", CategoryVintage},
	{"aden", "Aden", "brightness(1.15) contrast(0.9) saturate(0.85) hue-rotate(-10deg)", CategoryColor},
	{"perpetua", "Perpetua", "brightness(1.05) contrast(1.1) saturate(1.15)", CategoryVintage},
	{"reyes", "Reyes", "brightness(1.15) contrast(0.85) saturate(0.75) sepia(0.22)", CategoryVintage},
	{"juno", "Juno", "brightness(1.15) contrast(1.1) saturate(1.2) hue-rotate(-10deg)", CategoryColor},
	{"slumber", "Slumber", "brightness(1.1) contrast(0.9) saturate(0.8) sepia(0.15)", CategoryArtistic},
	{"crema", "Crema", "brightness(1.08) contrast(1.05) saturate(1.1) sepia(0.2)", CategoryVintage},
	{"lark", "Lark", "brightness(1.1) contrast(1.05) saturate(1.25)", CategoryColor},
	{"moon", "Moon", "brightness(1.15) contrast(0.95) saturate(0)", CategoryArtistic},
	{"clarendon", "Clarendon", "contrast(1.2) saturate(1.35) brightness(1.05)", CategoryColor},
	{"gingham", "Gingham", "brightness(1.05) contrast(0.95) saturate(0.9)", CategoryArtistic},
	{"mayfair", "Mayfair", "brightness(1.1) contrast(1.05) saturate(1.15) hue-rotate(-5deg)", CategoryColor},
	{"nashville", "Nashville", "sepia(0.2) contrast(1.2) brightness(1.05) saturate(1.2) hue-rotate(-15deg)", CategoryVintage},
	{"stinson", "Stinson", "brightness(1.1) contrast(0.95) saturate(0.85) sepia(0.15)", CategoryVintage},
	{"valencia", "Valencia", "brightness(1.08) contrast(1.05) saturate(1.08) sepia(0.08)", CategoryColor},
	{"xpro2", "X-Pro II", "contrast(1.25) brightness(0.9) saturate(1.35) sepia(0.3)", CategoryVintage},
	{"lofi", "Lo-Fi", "contrast(1.4) saturate(1.1) brightness(1.05)", CategoryArtistic},
	{"inkwell", "Inkwell", "grayscale(1) contrast(1.1) brightness(0.95)", CategoryBasic},
	{"hefe", "Hefe", "contrast(1.3) brightness(1.05) saturate(1.2) sepia(0.15)", CategoryVintage},
	{"sierra", "Sierra", "brightness(1.05) contrast(1.1) saturate(0.85) sepia(0.25)", CategoryVintage},
	{"willow", "Willow", "brightness(1.1) contrast(0.95) saturate(0) sepia(0.2)", CategoryArtistic},
	{"brooklyn", "Brooklyn", "brightness(1.15) contrast(0.9) saturate(0.75) sepia(0.25)", CategoryVintage},
	{"hudson", "Hudson", "brightness(1.2) contrast(1.15) saturate(1.1) hue-rotate(-10deg)", CategoryCinematic},
	{"earlybird", "Earlybird", "sepia(0.25) contrast(1.15) brightness(1.05) saturate(0.9)", CategoryVintage},
	{"brannan", "Brannan", "contrast(1.4) brightness(0.9) saturate(0.8) sepia(0.5)", CategoryVintage},
	{"sutro", "Sutro", "brightness(0.95) contrast(1.25) saturate(0.9) sepia(0.4)", CategoryCinematic},
	{"toaster", "Toaster", "brightness(0.95) contrast(1.5) saturate(0.9) sepia(0.4)", CategoryArtistic},
	{"walden", "Walden", "brightness(1.1) saturate(1.35) sepia(0.3) hue-rotate(-10deg)", CategoryColor},
	{"1977", "1977", "brightness(1.1) contrast(1.1) saturate(1.3) sepia(0.3) hue-rotate(-10deg)", CategoryVintage},
	{"kelvin", "Kelvin", "brightness(1.15) contrast(1.1) saturate(1.2) sepia(0.15) hue-rotate(-10deg)", CategoryColor},
	{"amaro", "Amaro", "brightness(1.1) contrast(1.05) saturate(1.35) hue-rotate(-10deg)", CategoryColor},
	{"rise", "Rise", "brightness(1.1) contrast(0.9) saturate(0.9) sepia(0.2)", CategoryVintage},
	{"lomo", "Lomo", "contrast(1.3) saturate(1.2) vignette(0.5)", CategoryArtistic},
	{"golden", "Golden Hour", "warmth(30) brightness(1.05)", CategoryColor},
	{"grainy", "Grainy Film", "grayscale(1) grain(0.3)", CategoryVintage},
}

var (
	catalog []Preset
	byID    map[string]Preset
)

func init() {
	catalog = make([]Preset, 0, len(presetDefs))
	byID = make(map[string]Preset, len(presetDefs))
	for _, d := range presetDefs {
		ops, err := ParseOps(d.css)
		if err != nil {
			panic(fmt.Sprintf("filter preset %s: %v", d.id, err))
		}
		if _, dup := byID[d.id]; dup {
			panic(fmt.Sprintf("duplicate filter preset %s", d.id))
		}
		p := Preset{ID: d.id, Name: d.name, Category: d.category, CSS: d.css, Ops: ops}
		catalog = append(catalog, p)
		byID[d.id] = p
	}
}

// Presets returns every preset in catalog order.
func Presets() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the preset with the given id.
func Lookup(id string) (Preset, bool) {
	if id == "" {
		id = NoneID
	}
	p, ok := byID[id]
	return p, ok
}

// ByCategory groups the catalog, keeping catalog order inside each group.
func ByCategory() map[Category][]Preset {
	out := make(map[Category][]Preset)
	for _, p := range catalog {
		out[p.Category] = append(out[p.Category], p)
	}
	return out
}

// Categories returns the distinct categories in sorted order.
func Categories() []Category {
	seen := map[Category]bool{}
	var out []Category
	for _, p := range catalog {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
