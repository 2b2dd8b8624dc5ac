package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/photocore/internal/composite"
	"github.com/MeKo-Tech/photocore/internal/filter"
	"github.com/MeKo-Tech/photocore/internal/relay"
	"github.com/MeKo-Tech/photocore/internal/session"
)

func TestParseStickerSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		x, y    float64
		size    float64
		wantErr bool
	}{
		{name: "id only", spec: "heart", x: 50, y: 50, size: 64},
		{name: "position", spec: "star:10,20", x: 10, y: 20, size: 64},
		{name: "position and size", spec: "sun: 25.5 , 75 ,120", x: 25.5, y: 75, size: 120},
		{name: "missing id", spec: ":10,20", wantErr: true},
		{name: "one coordinate", spec: "heart:10", wantErr: true},
		{name: "too many values", spec: "heart:1,2,3,4", wantErr: true},
		{name: "not a number", spec: "heart:a,b", wantErr: true},
		{name: "zero size", spec: "heart:1,2,0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := parseStickerSpec(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, st.ID)
			assert.Equal(t, tt.x, st.X)
			assert.Equal(t, tt.y, st.Y)
			assert.Equal(t, tt.size, st.Size)
		})
	}
}

func TestParseTarget(t *testing.T) {
	got, err := parseTarget("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseTarget("#00ff00")
	require.NoError(t, err)
	assert.Equal(t, &relay.TargetColor{R: 0, G: 255, B: 0}, got)

	_, err = parseTarget("not-a-color")
	require.Error(t, err)
}

func TestBuildSession(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		sess, err := buildSession("cat.jpg", renderOptions{
			Filter:       "vintage",
			AdjustPreset: "vivid",
			Sliders:      map[string]int{"hue": -30},
			Texts:        []string{"Hello"},
			TextColor:    "#ff0000",
			FontSize:     48,
			Stickers:     []string{"heart:10,20"},
		})
		require.NoError(t, err)

		st := sess.Snapshot()
		assert.Equal(t, "cat.jpg", st.Image)
		assert.Equal(t, "vintage", st.FilterID)

		want, _ := filter.AdjustPreset("vivid")
		want.Hue = -30
		assert.Equal(t, want, st.Adjust)

		require.Len(t, st.Texts, 1)
		assert.Equal(t, "Hello", st.Texts[0].Text)
		assert.Equal(t, "#ff0000", st.Texts[0].Color)
		assert.Equal(t, 48.0, st.Texts[0].FontSize)

		require.Len(t, st.Stickers, 1)
		assert.Equal(t, "heart", st.Stickers[0].StickerID)
	})

	t.Run("flags override scene", func(t *testing.T) {
		scene := &session.State{
			FilterID: "blackwhite",
			Adjust:   filter.AdjustSettings{Brightness: 20, Contrast: 10},
			Texts:    []session.TextElement{session.NewText("From file")},
			Stickers: []session.StickerElement{
				{ID: "b", StickerID: "star", ZIndex: 5},
				{ID: "a", StickerID: "heart", ZIndex: 1},
			},
		}
		sess, err := buildSession("cat.jpg", renderOptions{
			Scene:   scene,
			Sliders: map[string]int{"contrast": -5},
		})
		require.NoError(t, err)

		st := sess.Snapshot()
		assert.Equal(t, "blackwhite", st.FilterID)
		assert.Equal(t, filter.AdjustSettings{Brightness: 20, Contrast: -5}, st.Adjust)
		require.Len(t, st.Texts, 1)
		assert.Equal(t, "From file", st.Texts[0].Text)

		sorted := st.SortedStickers()
		require.Len(t, sorted, 2)
		assert.Equal(t, "heart", sorted[0].StickerID)
		assert.Equal(t, "star", sorted[1].StickerID)
	})

	errs := []struct {
		name string
		opts renderOptions
	}{
		{"unknown filter", renderOptions{Filter: "nope"}},
		{"unknown adjust preset", renderOptions{AdjustPreset: "nope"}},
		{"slider out of range", renderOptions{Sliders: map[string]int{"brightness": 101}}},
		{"unknown slider", renderOptions{Sliders: map[string]int{"gamma": 1}}},
		{"bad sticker", renderOptions{Stickers: []string{"heart:x"}}},
		{"scene with unknown filter", renderOptions{Scene: &session.State{FilterID: "nope"}}},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildSession("cat.jpg", tt.opts)
			require.Error(t, err)
		})
	}
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.PNG", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	single := filepath.Join(dir, "notes.txt")
	got, err := collectInputs([]string{dir, single, filepath.Join(dir, "b.jpg")})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.webp"),
		single,
	}, got)

	_, err = collectInputs([]string{filepath.Join(dir, "missing.jpg")})
	require.Error(t, err)
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	err := printCatalog(&buf, catalog{
		Filters:       filter.Presets(),
		AdjustPresets: filter.AdjustPresetNames,
		Stickers:      composite.Stickers(),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "FILTER")
	assert.Contains(t, out, "OPS")
	assert.Contains(t, out, "sepia(0.5) contrast(1.1) brightness(1.05)")
	assert.Contains(t, out, "grayscale(1)")
	assert.Contains(t, out, "blackwhite")
	assert.Contains(t, out, "vivid")
	assert.Contains(t, out, "heart")
}

func TestServeRenderer(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("serve.max_width", nil)
		viper.Set("serve.max_height", nil)
	})

	viper.Set("serve.max_width", 1920)
	viper.Set("serve.max_height", 1080)
	r, err := serveRenderer()
	require.NoError(t, err)
	assert.NotNil(t, r)

	viper.Set("serve.max_height", 0)
	_, err = serveRenderer()
	assert.Error(t, err)
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.bin")
	require.NoError(t, writeOutput(path, []byte("data")))

	got, err := readInput(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	_, err = readInput(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
