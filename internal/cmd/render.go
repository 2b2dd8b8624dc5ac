package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photocore/internal/filter"
	"github.com/MeKo-Tech/photocore/internal/session"
)

var renderCmd = &cobra.Command{
	Use:   "render <image>",
	Short: "Render a filter, adjustments and overlays into a final PNG",
	Long: `Render the edit of a photo: adjustment sliders, a filter preset, then
text and sticker overlays.

The scene can be given with flags or as a JSON file (--scene) holding
{"filter", "adjust", "texts", "stickers"}. Flags override the file.

Stickers are given as id[:x,y[,size]] with x and y in percent, e.g.
--sticker heart:20,30,96`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

// sliderFlags are the per-slider flags, named like the AdjustSettings fields.
var sliderFlags = []string{"brightness", "contrast", "saturation", "hue", "warmth", "shadows", "highlights"}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "edited.png", "Output file (- for stdout)")
	renderCmd.Flags().String("filter", "", "Filter preset id (see: photocore filters)")
	renderCmd.Flags().String("adjust-preset", "", "Named adjustment preset (vivid, soft, dramatic, ...)")
	for _, name := range sliderFlags {
		limit := 100
		if name == "hue" {
			limit = 180
		}
		renderCmd.Flags().Int(name, 0, fmt.Sprintf("%s slider (-%d..%d)", name, limit, limit))
	}
	renderCmd.Flags().String("scene", "", "JSON scene file")
	renderCmd.Flags().StringArray("text", nil, "Text overlay, centered (repeatable)")
	renderCmd.Flags().String("text-color", "#FFFFFF", "Text color")
	renderCmd.Flags().Float64("font-size", 32, "Font size at 800px canvas width")
	renderCmd.Flags().StringArray("sticker", nil, "Sticker overlay id[:x,y[,size]] (repeatable)")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, renderCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("render.filter", "filter")
	mustBind("render.adjust_preset", "adjust-preset")
	mustBind("render.text_color", "text-color")
	mustBind("render.font_size", "font-size")
}

// renderOptions is everything the render command turns into a session.
type renderOptions struct {
	Scene        *session.State
	Filter       string
	AdjustPreset string
	Sliders      map[string]int // only sliders that were set
	Texts        []string
	TextColor    string
	FontSize     float64
	Stickers     []string
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	opts := renderOptions{
		Filter:       viper.GetString("render.filter"),
		AdjustPreset: viper.GetString("render.adjust_preset"),
		Sliders:      map[string]int{},
		TextColor:    viper.GetString("render.text_color"),
		FontSize:     viper.GetFloat64("render.font_size"),
	}
	for _, name := range sliderFlags {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetInt(name)
			opts.Sliders[name] = v
		}
	}
	opts.Texts, _ = cmd.Flags().GetStringArray("text")
	opts.Stickers, _ = cmd.Flags().GetStringArray("sticker")

	if path, _ := cmd.Flags().GetString("scene"); path != "" {
		data, err := readInput(path)
		if err != nil {
			return err
		}
		var scene session.State
		if err := json.Unmarshal(data, &scene); err != nil {
			return fmt.Errorf("failed to parse scene %s: %w", path, err)
		}
		opts.Scene = &scene
	}

	sess, err := buildSession(args[0], opts)
	if err != nil {
		return err
	}

	img, err := readInput(args[0])
	if err != nil {
		return err
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()

	output, _ := cmd.Flags().GetString("output")
	res, err := svc.Save(ctx, sess, img, output)
	if err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		logger.Warn("Unknown stickers were not drawn", "stickers", res.Skipped)
	}

	logger.Info("Rendered",
		"filter", sess.Snapshot().FilterID,
		"width", res.Image.Width,
		"height", res.Image.Height,
		"output", output,
	)
	return writeOutput(output, res.Image.Data)
}

// buildSession applies the scene file first, then the flags.
func buildSession(ref string, opts renderOptions) (*session.Session, error) {
	sess := session.New()
	sess.SetImage(ref)

	adjust := filter.AdjustSettings{}
	if sc := opts.Scene; sc != nil {
		if err := sess.SetFilter(sc.FilterID); err != nil {
			return nil, err
		}
		adjust = sc.Adjust
		for _, t := range sc.Texts {
			sess.AddText(t)
		}
		for _, st := range sc.SortedStickers() {
			sess.AddSticker(st)
		}
	}

	if opts.Filter != "" {
		if err := sess.SetFilter(opts.Filter); err != nil {
			return nil, err
		}
	}
	if opts.AdjustPreset != "" {
		p, ok := filter.AdjustPreset(opts.AdjustPreset)
		if !ok {
			return nil, fmt.Errorf("unknown adjustment preset %q", opts.AdjustPreset)
		}
		adjust = p
	}
	for name, v := range opts.Sliders {
		switch name {
		case "brightness":
			adjust.Brightness = v
		case "contrast":
			adjust.Contrast = v
		case "saturation":
			adjust.Saturation = v
		case "hue":
			adjust.Hue = v
		case "warmth":
			adjust.Warmth = v
		case "shadows":
			adjust.Shadows = v
		case "highlights":
			adjust.Highlights = v
		default:
			return nil, fmt.Errorf("unknown slider %q", name)
		}
	}
	if err := sess.SetAdjust(adjust); err != nil {
		return nil, err
	}

	for _, text := range opts.Texts {
		t := session.NewText(text)
		if opts.TextColor != "" {
			t.Color = opts.TextColor
		}
		if opts.FontSize > 0 {
			t.FontSize = opts.FontSize
		}
		sess.AddText(t)
	}
	for _, spec := range opts.Stickers {
		st, err := parseStickerSpec(spec)
		if err != nil {
			return nil, err
		}
		sess.AddSticker(st)
	}
	return sess, nil
}

// parseStickerSpec parses id[:x,y[,size]].
func parseStickerSpec(spec string) (session.StickerElement, error) {
	id, pos, hasPos := strings.Cut(spec, ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return session.StickerElement{}, fmt.Errorf("invalid sticker %q: missing id", spec)
	}
	st := session.NewSticker(id)
	if !hasPos {
		return st, nil
	}

	parts := strings.Split(pos, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return session.StickerElement{}, fmt.Errorf("invalid sticker %q: want id:x,y[,size]", spec)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return session.StickerElement{}, fmt.Errorf("invalid sticker %q: %w", spec, err)
		}
		vals[i] = v
	}
	st.X, st.Y = vals[0], vals[1]
	if len(vals) == 3 {
		if vals[2] <= 0 {
			return session.StickerElement{}, fmt.Errorf("invalid sticker %q: size must be positive", spec)
		}
		st.Size = vals[2]
	}
	return st, nil
}
