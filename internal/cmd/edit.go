package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photocore/internal/editor"
	"github.com/MeKo-Tech/photocore/internal/relay"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <image>",
	Short: "Remove the background of a photo",
	Long: `Remove the background of a photo and write a PNG cutout.

The relay (--relay-url) is tried first; if it is unreachable or times out
the local heuristic runs instead. Modes:
  auto    border-seeded flood fill with edge smoothing (default)
  direct  key out the dominant border color everywhere
  color   key out --target everywhere`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

var correctCmd = &cobra.Command{
	Use:   "correct <image>",
	Short: "Automatic color correction",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorrect,
}

var sharpenCmd = &cobra.Command{
	Use:   "sharpen <image>",
	Short: "Smart sharpening with optional 2x upscale",
	Args:  cobra.ExactArgs(1),
	RunE:  runSharpen,
}

func init() {
	rootCmd.AddCommand(segmentCmd, correctCmd, sharpenCmd)

	segmentCmd.Flags().StringP("output", "o", "cutout.png", "Output file (- for stdout)")
	segmentCmd.Flags().String("mode", string(relay.ModeAuto), "Removal mode (auto, direct, color)")
	segmentCmd.Flags().Float64("tolerance", 0, "Color tolerance 0-100 (default 50, 40 for previews)")
	segmentCmd.Flags().String("target", "", "Target color for color mode (#rrggbb, rgb(), or a CSS name)")
	segmentCmd.Flags().Float64("feather", 0, "Soften the cut-out edge over this many pixels (auto mode)")
	segmentCmd.Flags().Bool("preview", false, "Work on a copy downsized to 800px")

	correctCmd.Flags().StringP("output", "o", "corrected.png", "Output file (- for stdout)")
	correctCmd.Flags().Bool("preview", false, "Work on a copy downsized to 800px")

	sharpenCmd.Flags().StringP("output", "o", "sharpened.jpg", "Output file (- for stdout)")
	sharpenCmd.Flags().Bool("preview", false, "Work on a copy downsized to 400px")

	bind := func(cmd *cobra.Command, pairs [][2]string) {
		for _, p := range pairs {
			if err := viper.BindPFlag(p[0], cmd.Flags().Lookup(p[1])); err != nil {
				panic(fmt.Sprintf("failed to bind flag: %v", err))
			}
		}
	}

	bind(segmentCmd, [][2]string{
		{"segment.mode", "mode"},
		{"segment.tolerance", "tolerance"},
		{"segment.target", "target"},
		{"segment.feather", "feather"},
	})
}

func runSegment(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	target, err := parseTarget(viper.GetString("segment.target"))
	if err != nil {
		return err
	}
	preview, _ := cmd.Flags().GetBool("preview")
	output, _ := cmd.Flags().GetString("output")

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

	out, err := svc.RemoveBackground(ctx, img, editor.RemoveRequest{
		Mode:      relay.Mode(viper.GetString("segment.mode")),
		Tolerance: viper.GetFloat64("segment.tolerance"),
		Feather:   viper.GetFloat64("segment.feather"),
		Target:    target,
		Preview:   preview,
	})
	if err != nil {
		return fmt.Errorf("failed to remove background: %w", err)
	}

	logger.Info("Background removed",
		"source", out.Source,
		"mode", out.Mode,
		"width", out.Width,
		"height", out.Height,
		"output", output,
	)
	return writeOutput(output, out.Data)
}

func runCorrect(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	preview, _ := cmd.Flags().GetBool("preview")
	output, _ := cmd.Flags().GetString("output")

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

	res, err := svc.Correct(ctx, img, preview)
	if err != nil {
		return fmt.Errorf("failed to correct colors: %w", err)
	}

	a := res.Analysis
	logger.Info("Color correction applied",
		"mode", a.Mode,
		"luminance", fmt.Sprintf("%.3f", a.AvgLuminance),
		"contrast", fmt.Sprintf("%.3f", a.Contrast),
		"saturation", fmt.Sprintf("%.3f", a.Saturation),
		"exposure", res.Params.Exposure,
		"magnitude", fmt.Sprintf("%.3f", res.Magnitude),
		"output", output,
	)
	return writeOutput(output, res.Image.Data)
}

func runSharpen(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	preview, _ := cmd.Flags().GetBool("preview")
	output, _ := cmd.Flags().GetString("output")

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

	enc, err := svc.Sharpen(ctx, img, preview)
	if err != nil {
		return fmt.Errorf("failed to sharpen: %w", err)
	}

	logger.Info("Sharpened", "width", enc.Width, "height", enc.Height, "output", output)
	return writeOutput(output, enc.Data)
}
